package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-storyteller/core/events"
)

type workerRun func(context.Context) error

func panicSafeNamedWorker(name string, run func(context.Context) error) workerRun {
	return func(ctx context.Context) (err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("%s worker panicked: %v", name, recovered)
			}
		}()

		if err = run(ctx); err != nil {
			return fmt.Errorf("%s worker failed: %w", name, err)
		}

		return nil
	}
}

func (o *Orchestrator) startWorker(ctx context.Context, name string, run func(context.Context) error) {
	worker := panicSafeNamedWorker(name, run)
	o.workers.Add(1)
	go func() {
		defer o.workers.Done()
		if err := worker(ctx); err != nil {
			logger.ErrorContext(ctx, "worker stopped", "worker", name, "error", err)
			if o.callbacks.onError != nil {
				o.callbacks.onError(err)
			}
		}
	}()
}

// emit hands an event to the dispatcher, giving up once the session ends.
func (o *Orchestrator) emit(event events.Event) {
	select {
	case o.events <- event:
	case <-o.baseContext.Done():
	}
}
