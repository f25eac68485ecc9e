package core

import (
	"fmt"
	"strings"
)

// Partitioner splits a dataset into disjoint partitions. Implementations
// are pure: they never copy or mutate samples.
type Partitioner interface {
	Partition(ds Dataset) ([]Partition, error)
}

// RemainderPolicy decides what EvenChunks does when the dataset length is
// not a multiple of the worker count.
type RemainderPolicy int

const (
	// RemainderReject fails with ErrPartitionCountMismatch.
	RemainderReject RemainderPolicy = iota
	// RemainderSpread hands one extra sample to each of the first N mod P
	// partitions.
	RemainderSpread
)

func (p RemainderPolicy) String() string {
	switch p {
	case RemainderReject:
		return "reject"
	case RemainderSpread:
		return "spread"
	default:
		return fmt.Sprintf("RemainderPolicy(%d)", int(p))
	}
}

// EvenChunks splits the flattened dataset into Workers contiguous partitions.
type EvenChunks struct {
	Workers   int
	Remainder RemainderPolicy
}

func (c EvenChunks) Partition(ds Dataset) ([]Partition, error) {
	if c.Workers <= 0 {
		return nil, NewReduceError(ErrPartitionCountMismatch, NoPartition, "worker count must be positive, got %d", c.Workers)
	}

	samples := ds.Flatten()
	n := len(samples)
	size, rem := n/c.Workers, n%c.Workers
	if rem != 0 && c.Remainder == RemainderReject {
		return nil, NewReduceError(ErrPartitionCountMismatch, NoPartition, "%d samples across %d workers leaves %d", n, c.Workers, rem)
	}

	partitions := make([]Partition, c.Workers)
	lo := 0
	for i := range partitions {
		hi := lo + size
		if i < rem {
			hi++
		}
		partitions[i] = Partition{
			Index:   i,
			Name:    fmt.Sprintf("chunk-%d", i),
			Samples: samples[lo:hi:hi],
		}
		lo = hi
	}
	return partitions, nil
}

// NamedGroups produces one partition per dataset group, regardless of size.
type NamedGroups struct{}

func (NamedGroups) Partition(ds Dataset) ([]Partition, error) {
	partitions := make([]Partition, len(ds.Groups))
	for i, g := range ds.Groups {
		n := len(g.Samples)
		partitions[i] = Partition{
			Index:   i,
			Name:    g.Name,
			Samples: g.Samples[:n:n],
		}
	}
	return partitions, nil
}

// ParsePolicy builds a partitioner from its configuration form.
// mode is "even" or "groups"; remainder is "reject" (default) or "spread".
func ParsePolicy(mode string, workers int, remainder string) (Partitioner, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "even":
		policy, err := parseRemainder(remainder)
		if err != nil {
			return nil, err
		}
		return EvenChunks{Workers: workers, Remainder: policy}, nil
	case "groups", "named":
		return NamedGroups{}, nil
	default:
		return nil, fmt.Errorf("unknown partitioning mode: %q", mode)
	}
}

func parseRemainder(s string) (RemainderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RemainderReject, nil
	case "spread":
		return RemainderSpread, nil
	default:
		return 0, fmt.Errorf("unknown remainder policy: %q", s)
	}
}
