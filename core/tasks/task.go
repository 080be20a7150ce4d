// Package tasks runs long, cancellable units of work whose results are only
// delivered while they are still the latest request of their kind.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// Token identifies one invocation of a task. Tokens of a kind grow
// monotonically; NoToken means no invocation is current.
type Token uint64

const NoToken Token = 0

const defaultMaxInFlight = 2

// Func is the blocking unit of work. Long running implementations should
// watch ctx, which is cancelled as soon as the invocation is superseded.
type Func[I, R any] func(ctx context.Context, input I, token Token) (R, error)

// Result is the outcome of a single, still current invocation. A failed
// invocation is delivered the same way as a successful one.
type Result[I, R any] struct {
	Token Token
	Input I
	Value R
	Err   error
}

type Option func(*options)

type options struct {
	maxInFlight int
}

// WithMaxInFlight bounds how many invocations of the task may execute at the
// same time. Superseded invocations still draining count towards the bound.
func WithMaxInFlight(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxInFlight = n
		}
	}
}

// Task wraps a Func of one kind (text generation, image generation...).
type Task[I, R any] struct {
	kind     string
	fn       Func[I, R]
	onResult func(Result[I, R])

	counter atomic.Uint64

	mu            sync.Mutex
	current       Token
	cancelCurrent context.CancelFunc

	slots    chan struct{}
	inFlight atomic.Int32
	wg       sync.WaitGroup
}

func New[I, R any](kind string, fn Func[I, R], onResult func(Result[I, R]), opts ...Option) *Task[I, R] {
	options := options{maxInFlight: defaultMaxInFlight}
	for _, opt := range opts {
		opt(&options)
	}

	if onResult == nil {
		onResult = func(Result[I, R]) {}
	}

	return &Task[I, R]{
		kind:     kind,
		fn:       fn,
		onResult: onResult,
		slots:    make(chan struct{}, options.maxInFlight),
	}
}

// Start issues a fresh token, makes it current and runs the task in the
// background. The previously current invocation has its context cancelled
// and its eventual result discarded. Start never blocks.
func (t *Task[I, R]) Start(ctx context.Context, input I) Token {
	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	token := Token(t.counter.Add(1))
	t.current = token
	previousCancel := t.cancelCurrent
	t.cancelCurrent = cancel
	t.mu.Unlock()

	if previousCancel != nil {
		previousCancel()
	}

	t.wg.Add(1)
	go t.run(runCtx, cancel, input, token)

	return token
}

// CancelCurrent moves the current token to a value no running invocation
// holds, so whatever is in flight is discarded when it finishes.
func (t *Task[I, R]) CancelCurrent() {
	t.mu.Lock()
	t.current = Token(t.counter.Add(1))
	cancel := t.cancelCurrent
	t.cancelCurrent = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *Task[I, R]) Current() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *Task[I, R]) IsCurrent(token Token) bool {
	return token != NoToken && t.Current() == token
}

// InFlight reports how many invocations are executing their Func.
func (t *Task[I, R]) InFlight() int { return int(t.inFlight.Load()) }

// Wait blocks until every started invocation has returned.
func (t *Task[I, R]) Wait() { t.wg.Wait() }

func (t *Task[I, R]) run(ctx context.Context, cancel context.CancelFunc, input I, token Token) {
	defer t.wg.Done()
	defer cancel()

	ctx, span := tracer.Start(ctx, "run task")
	defer span.End()
	span.SetAttributes(
		attribute.String("task.kind", t.kind),
		attribute.Int64("task.token", int64(token)),
	)

	select {
	case t.slots <- struct{}{}:
	case <-ctx.Done():
		t.discard(ctx, token, "superseded before start")
		return
	}
	defer func() { <-t.slots }()

	if !t.IsCurrent(token) {
		t.discard(ctx, token, "superseded before start")
		return
	}

	t.inFlight.Add(1)
	value, err := t.invoke(ctx, input, token)
	t.inFlight.Add(-1)

	if !t.IsCurrent(token) {
		t.discard(ctx, token, "superseded")
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	t.onResult(Result[I, R]{Token: token, Input: input, Value: value, Err: err})

	t.mu.Lock()
	if t.current == token {
		t.current = NoToken
		t.cancelCurrent = nil
	}
	t.mu.Unlock()
}

func (t *Task[I, R]) invoke(ctx context.Context, input I, token Token) (value R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%s task panicked: %v", t.kind, recovered)
		}
	}()

	if value, err = t.fn(ctx, input, token); err != nil {
		return value, fmt.Errorf("%s task failed: %w", t.kind, err)
	}

	return value, nil
}

func (t *Task[I, R]) discard(ctx context.Context, token Token, reason string) {
	discardedResults.Add(ctx, 1, metric.WithAttributes(attribute.String("task.kind", t.kind)))
	logger.DebugContext(ctx, "discarding task result",
		"kind", t.kind,
		"token", uint64(token),
		"reason", reason,
	)
}
