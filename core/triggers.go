package orchestration

import (
	"context"
	"fmt"

	"github.com/koscakluka/ema-storyteller/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// startCapturing reports whether a new turn started capturing.
func (o *Orchestrator) startCapturing() bool {
	if o.capture == nil {
		logger.WarnContext(o.baseContext, "trigger pressed without an audio capture configured")
		return false
	}
	if !o.slot.CompareAndSwap(int32(SlotIdle), int32(SlotCapturing)) {
		return false
	}

	if err := o.beginTurn(TurnCapturing, o.captureAndTranscribe); err != nil {
		o.slot.Store(int32(SlotIdle))
		logger.DebugContext(o.baseContext, "trigger ignored", "error", err)
		return false
	}
	return true
}

// beginTurn supersedes the previous turn, makes a new one current and runs
// it in the background. The caller must already own the slot.
func (o *Orchestrator) beginTurn(status TurnStatus, run func(t *turn)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started || o.closed {
		return ErrNotOrchestrating
	}

	// Tasks go first so no result of the previous turn can be delivered
	// once the new turn is current.
	o.responseTask.CancelCurrent()
	o.imageTask.CancelCurrent()

	t := newTurn(o.baseContext, o.turnIDs.Add(1), status)
	if previous := o.currentTurn.Swap(t); previous != nil && previous.supersede() {
		turnsSuperseded.Add(o.baseContext, 1)
		logger.DebugContext(o.baseContext, "turn superseded", "turn.id", previous.id, "by", t.id)
	}
	turnsStarted.Add(o.baseContext, 1, metric.WithAttributes(attribute.String("turn.initial_status", string(status))))

	if o.speaker != nil {
		select {
		case o.speechTurns <- t:
		default:
			logger.WarnContext(o.baseContext, "speech queue full, turn will not be spoken", "turn.id", t.id)
		}
	}

	o.turnWorkers.Add(1)
	go func() {
		defer o.turnWorkers.Done()
		o.runTurn(t, run)
	}()
	return nil
}

func (o *Orchestrator) runTurn(t *turn, run func(t *turn)) {
	ctx, span := tracer.Start(t.ctx, "process turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", o.sessionID),
		attribute.Int64("turn.id", t.id),
	)

	o.emit(events.NewTurnStateChanged(t.id, string(t.Status())))

	worker := panicSafeNamedWorker("turn", func(context.Context) error {
		run(t)
		return nil
	})
	if err := worker(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.failTurn(t, err)
		if o.isCurrentTurn(t.id) {
			o.slot.Store(int32(SlotIdle))
		}
		return
	}

	span.SetAttributes(attribute.String("turn.status", string(t.Status())))
}

// failTurn ends a live turn with err. Failures are reported to sinks but
// never stop the orchestrator.
func (o *Orchestrator) failTurn(t *turn, err error) {
	if !t.fail(err) {
		return
	}
	logger.WarnContext(t.ctx, "turn failed", "turn.id", t.id, "error", err)
	o.emit(events.NewTurnFailed(t.id, fmt.Errorf("turn %d: %w", t.id, err)))
	o.emit(events.NewTurnStateChanged(t.id, string(TurnFailed)))
}
