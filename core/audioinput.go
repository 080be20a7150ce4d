package orchestration

import (
	"fmt"

	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/events"
	"go.opentelemetry.io/otel/attribute"
)

// captureAndTranscribe records while the gate is held, then hands the
// recording to transcription.
func (o *Orchestrator) captureAndTranscribe(t *turn) {
	samples, err := o.captureWhileGated(t)
	if err != nil {
		o.failTurn(t, err)
		o.slot.Store(int32(SlotIdle))
		return
	}
	if len(samples) == 0 {
		o.dropTurn(t)
		return
	}

	o.transcribe(t, samples)
}

func (o *Orchestrator) captureWhileGated(t *turn) ([]int16, error) {
	ctx, span := tracer.Start(t.ctx, "capture audio")
	defer span.End()

	if err := o.capture.StartCapture(ctx); err != nil {
		return nil, fmt.Errorf("failed to start audio capture: %w", err)
	}
	defer func() {
		if err := o.capture.StopCapture(); err != nil {
			logger.WarnContext(ctx, "failed to stop audio capture", "error", err)
		}
	}()

	pressedAt := o.gate.ChangedAt()
	var samples []int16
	for o.gate.IsActive() {
		frame, err := o.capture.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Keep what was recorded so far; a device hiccup at release
			// time should not lose the utterance.
			logger.WarnContext(ctx, "failed to read audio frame", "error", err)
			break
		}
		samples = append(samples, frame...)
		o.emit(events.NewUserAudioEnergy(t.id, audio.Energy(frame)))
	}

	if releasedAt := o.gate.ChangedAt(); !pressedAt.IsZero() && releasedAt.After(pressedAt) {
		span.SetAttributes(attribute.Float64("capture.gate_held", releasedAt.Sub(pressedAt).Seconds()))
	}
	span.SetAttributes(attribute.Int("capture.samples", len(samples)))

	return samples, nil
}

// dropTurn returns to idle without dispatching a turn whose capture was
// empty.
func (o *Orchestrator) dropTurn(t *turn) {
	logger.DebugContext(t.ctx, "dropping turn", "turn.id", t.id, "reason", ErrCaptureEmpty)
	if t.fail(ErrCaptureEmpty) {
		o.emit(events.NewTurnStateChanged(t.id, string(TurnFailed)))
	}
	o.slot.Store(int32(SlotIdle))
}
