package core

import (
	"errors"
	"fmt"
)

var (
	ErrPartitionCountMismatch = errors.New("dataset length is not divisible by worker count")
	ErrEmptyPartition         = errors.New("partition has no samples")
	ErrIncompleteCollection   = errors.New("not every partition reported a result")
	ErrEmptyDataset           = errors.New("dataset has no samples")
)

// NoPartition marks a ReduceError that is not tied to a single partition.
const NoPartition = -1

// ReduceError aborts a reduction run. Err is always one of the Err* sentinels.
type ReduceError struct {
	Err       error
	Partition int
	Detail    string
}

func NewReduceError(err error, partition int, format string, args ...any) *ReduceError {
	return &ReduceError{
		Err:       err,
		Partition: partition,
		Detail:    fmt.Sprintf(format, args...),
	}
}

func (e *ReduceError) Error() string {
	msg := e.Err.Error()
	if e.Partition != NoPartition {
		msg = fmt.Sprintf("partition %d: %s", e.Partition, msg)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ReduceError) Unwrap() error {
	return e.Err
}

// Error kinds as reported to sinks and carried over the wire.
const (
	KindPartitionCountMismatch = "PARTITION_COUNT_MISMATCH"
	KindEmptyPartition         = "EMPTY_PARTITION"
	KindIncompleteCollection   = "INCOMPLETE_COLLECTION"
	KindEmptyDataset           = "EMPTY_DATASET"
	KindUnknown                = "UNKNOWN"
)

var kinds = map[string]error{
	KindPartitionCountMismatch: ErrPartitionCountMismatch,
	KindEmptyPartition:         ErrEmptyPartition,
	KindIncompleteCollection:   ErrIncompleteCollection,
	KindEmptyDataset:           ErrEmptyDataset,
}

// KindOf returns the stable kind name of err, or KindUnknown.
func KindOf(err error) string {
	for kind, sentinel := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// PartitionOf returns the partition index attached to err, if any.
func PartitionOf(err error) (int, bool) {
	var re *ReduceError
	if errors.As(err, &re) && re.Partition != NoPartition {
		return re.Partition, true
	}
	return NoPartition, false
}

// DetailOf returns the free-form part of err: the Detail of a ReduceError,
// or the full message of any other error.
func DetailOf(err error) string {
	var re *ReduceError
	if errors.As(err, &re) {
		return re.Detail
	}
	return err.Error()
}

// ErrorFromKind rebuilds a ReduceError from its wire form. Unknown kinds
// come back as a plain error carrying the message.
func ErrorFromKind(kind string, partition int, message string) error {
	sentinel, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("partition %d: %s", partition, message)
	}
	return &ReduceError{Err: sentinel, Partition: partition, Detail: message}
}
