package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nemanja-m/lapreduce/pkg/tracer"
)

type State string

const (
	StateInitialized State = "INITIALIZED"
	StatePartitioned State = "PARTITIONED"
	StateDispatched  State = "DISPATCHED"
	StateCollecting  State = "COLLECTING"
	StateMerged      State = "MERGED"
	StateReported    State = "REPORTED"
	StateFailed      State = "FAILED"
)

// Logger is the subset of *slog.Logger the reducer logs through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Clock interface {
	Now() time.Time
}

type MemoryProbe interface {
	PeakMemoryKB() uint64
}

// Sink receives the outcome of a run: exactly one of Report or Fail is
// called, exactly once.
type Sink interface {
	Report(r Report) error
	Fail(err error) error
}

// Report is the immutable outcome of a successful run.
type Report struct {
	Extrema      GlobalExtrema
	Partitions   []Partition
	Locals       []LocalExtrema
	Samples      int
	Checksum     uint64
	Elapsed      time.Duration
	PeakMemoryKB uint64
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Option func(*Reducer)

func WithClock(c Clock) Option { return func(r *Reducer) { r.clock = c } }

func WithMemoryProbe(p MemoryProbe) Option { return func(r *Reducer) { r.probe = p } }

func WithSink(s Sink) Option { return func(r *Reducer) { r.sink = s } }

func WithLogger(l Logger) Option { return func(r *Reducer) { r.logger = l } }

// WithStateHook registers fn to be called on every state change.
func WithStateHook(fn func(State)) Option { return func(r *Reducer) { r.onState = fn } }

// WithCollectTimeout bounds how long Gather may wait for workers.
// Zero means wait until the context is done.
func WithCollectTimeout(d time.Duration) Option {
	return func(r *Reducer) { r.collectTimeout = d }
}

// Reducer is the partition → local reduce → collect → merge pipeline.
// The concurrency substrate is the injected Transport.
type Reducer struct {
	partitioner    Partitioner
	transport      Transport
	clock          Clock
	probe          MemoryProbe
	sink           Sink
	logger         Logger
	onState        func(State)
	collectTimeout time.Duration
}

func NewReducer(partitioner Partitioner, transport Transport, opts ...Option) *Reducer {
	r := &Reducer{
		partitioner: partitioner,
		transport:   transport,
		clock:       systemClock{},
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reducer) Run(ctx context.Context, ds Dataset) (Report, error) {
	ctx, span := tracer.Start(ctx, "reducer.Run", trace.WithAttributes(attribute.Int("samples", ds.Len())))
	defer span.End()

	start := r.clock.Now()
	r.enter(StateInitialized)

	rep, err := r.run(ctx, ds)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err))
		r.enter(StateFailed)
		r.logger.Error("Reduction failed", "kind", KindOf(err), "error", err)
		if r.sink != nil {
			if sinkErr := r.sink.Fail(err); sinkErr != nil {
				r.logger.Error("Failed to report failure", "error", sinkErr)
			}
		}
		return Report{}, err
	}

	rep.Elapsed = r.clock.Now().Sub(start)
	if r.probe != nil {
		rep.PeakMemoryKB = r.probe.PeakMemoryKB()
	}

	if r.sink != nil {
		if err := r.sink.Report(rep); err != nil {
			r.enter(StateFailed)
			return rep, fmt.Errorf("report result: %w", err)
		}
	}
	r.enter(StateReported)
	return rep, nil
}

func (r *Reducer) run(ctx context.Context, ds Dataset) (Report, error) {
	n := ds.Len()
	if n == 0 {
		return Report{}, NewReduceError(ErrEmptyDataset, NoPartition, "")
	}

	_, span := tracer.Start(ctx, "reducer.Partition")
	partitions, err := r.partitioner.Partition(ds)
	span.End()
	if err != nil {
		return Report{}, err
	}
	r.enter(StatePartitioned)
	r.logger.Debug("Dataset partitioned", "samples", n, "partitions", len(partitions))

	scatterCtx, span := tracer.Start(ctx, "reducer.Scatter")
	err = r.transport.Scatter(scatterCtx, partitions)
	span.End()
	if err != nil {
		return Report{}, fmt.Errorf("scatter partitions: %w", err)
	}
	r.enter(StateDispatched)

	gatherCtx := ctx
	if r.collectTimeout > 0 {
		var cancel context.CancelFunc
		gatherCtx, cancel = context.WithTimeout(ctx, r.collectTimeout)
		defer cancel()
	}
	gatherCtx, span = tracer.Start(gatherCtx, "reducer.Gather")
	r.enter(StateCollecting)
	results, err := r.transport.Gather(gatherCtx)
	span.End()
	if err != nil {
		var re *ReduceError
		if errors.As(err, &re) {
			return Report{}, err
		}
		return Report{}, NewReduceError(ErrIncompleteCollection, NoPartition, "%v", err)
	}

	locals, err := collect(len(partitions), results)
	if err != nil {
		return Report{}, err
	}

	_, span = tracer.Start(ctx, "reducer.Merge")
	global, err := Merge(locals)
	span.End()
	if err != nil {
		return Report{}, err
	}
	r.enter(StateMerged)

	return Report{
		Extrema:    global,
		Partitions: partitions,
		Locals:     locals,
		Samples:    n,
		Checksum:   Checksum(ds.Flatten()),
	}, nil
}

// collect places each result in its partition's slot. Every slot must be
// written exactly once; worker errors win over completeness checks.
func collect(n int, results []LocalResult) ([]LocalExtrema, error) {
	slots := make([]LocalExtrema, n)
	filled := make([]bool, n)

	for _, res := range results {
		if res.Partition < 0 || res.Partition >= n {
			return nil, NewReduceError(ErrIncompleteCollection, NoPartition, "result for unknown partition %d", res.Partition)
		}
		if res.Err != nil {
			var re *ReduceError
			if errors.As(res.Err, &re) {
				return nil, res.Err
			}
			return nil, NewReduceError(ErrIncompleteCollection, res.Partition, "%v", res.Err)
		}
		if filled[res.Partition] {
			return nil, NewReduceError(ErrIncompleteCollection, res.Partition, "duplicate result")
		}
		slots[res.Partition] = res.Extrema
		filled[res.Partition] = true
	}

	for i, ok := range filled {
		if !ok {
			return nil, NewReduceError(ErrIncompleteCollection, i, "%d of %d results received", len(results), n)
		}
	}
	return slots, nil
}

func (r *Reducer) enter(s State) {
	r.logger.Debug("Reducer state changed", "state", string(s))
	if r.onState != nil {
		r.onState(s)
	}
}
