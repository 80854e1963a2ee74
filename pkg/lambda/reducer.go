package lambda

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

// ErrStepLimit is returned by Reducer.Run when the step budget is exhausted
// before a normal form is reached.
var ErrStepLimit = errors.New("step limit reached")

// TraceEvent records one contraction.
type TraceEvent struct {
	Step   int
	Before string
	After  string
}

// Stats holds reduction statistics.
type Stats struct {
	Steps   int
	MaxSize int
	Elapsed time.Duration
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithMaxSteps bounds the number of contractions. Zero means unbounded.
func WithMaxSteps(n int) Option {
	return func(r *Reducer) { r.maxSteps = n }
}

// WithTrace keeps the first capacity contractions for TraceSnapshot.
func WithTrace(capacity int) Option {
	return func(r *Reducer) {
		if capacity <= 0 {
			capacity = 1
		}
		r.traceCap = capacity
	}
}

// WithLogger logs every contraction at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reducer) { r.logger = logger }
}

// WithStepHook calls fn with each intermediate term, after contraction.
func WithStepHook(fn func(step int, t Term)) Option {
	return func(r *Reducer) { r.hook = fn }
}

// Reducer drives ReduceStep to a normal form under a step budget and a
// context. A Reducer is not safe for concurrent use; create one per run.
type Reducer struct {
	maxSteps int
	traceCap int
	logger   *slog.Logger
	hook     func(int, Term)

	trace []TraceEvent
	stats Stats
}

// NewReducer returns an unbounded, untraced Reducer adjusted by opts.
func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Run reduces t until no step applies. On ErrStepLimit or a context error
// the last term reached is returned alongside the error.
func (r *Reducer) Run(ctx context.Context, t Term) (Term, error) {
	r.stats = Stats{MaxSize: Size(t)}
	r.trace = r.trace[:0]

	start := time.Now()
	defer func() { r.stats.Elapsed = time.Since(start) }()

	current := t
	for {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		next, changed := ReduceStep(current)
		if !changed {
			r.logger.DebugContext(ctx, "normal form", "steps", r.stats.Steps, "term", current)
			return current, nil
		}
		if r.maxSteps > 0 && r.stats.Steps >= r.maxSteps {
			return current, errors.Wrapf(ErrStepLimit, "after %d steps", r.stats.Steps)
		}
		r.stats.Steps++
		r.stats.MaxSize = max(r.stats.MaxSize, Size(next))

		r.logger.DebugContext(ctx, "contracted", "step", r.stats.Steps, "term", next)
		r.record(current, next)
		if r.hook != nil {
			r.hook(r.stats.Steps, next)
		}
		current = next
	}
}

// Stats returns the statistics of the last Run.
func (r *Reducer) Stats() Stats {
	return r.stats
}

// TraceSnapshot returns a copy of the recorded contractions.
func (r *Reducer) TraceSnapshot() []TraceEvent {
	if r.traceCap == 0 {
		return nil
	}
	res := make([]TraceEvent, len(r.trace))
	copy(res, r.trace)
	return res
}

func (r *Reducer) record(before, after Term) {
	if len(r.trace) >= r.traceCap {
		return
	}
	r.trace = append(r.trace, TraceEvent{
		Step:   r.stats.Steps,
		Before: before.String(),
		After:  after.String(),
	})
}
