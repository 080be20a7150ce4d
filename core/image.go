package orchestration

import (
	"context"

	"github.com/koscakluka/ema-storyteller/core/events"
	"github.com/koscakluka/ema-storyteller/core/tasks"
	"go.opentelemetry.io/otel/attribute"
)

func (o *Orchestrator) generateImage(ctx context.Context, request turnRequest, _ tasks.Token) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "illustrate turn")
	defer span.End()
	span.SetAttributes(attribute.Int64("turn.id", request.turnID))

	return o.imageGenerator.Generate(ctx, request.prompt)
}

// onImageResult treats a failed illustration as a reportable problem, not a
// failed turn.
func (o *Orchestrator) onImageResult(result tasks.Result[turnRequest, []byte]) {
	t := o.currentTurn.Load()
	if t == nil || t.id != result.Input.turnID {
		logger.DebugContext(o.baseContext, "dropping image of superseded turn", "turn.id", result.Input.turnID)
		return
	}

	switch {
	case result.Err != nil:
		logger.WarnContext(t.ctx, "image generation failed", "turn.id", t.id, "error", result.Err)
		o.emit(events.NewTurnFailed(t.id, result.Err))
	case result.Value != nil:
		o.emit(events.NewAssistantImageGenerated(t.id, result.Value))
	}

	if t.finishImage() {
		o.emit(events.NewTurnStateChanged(t.id, string(TurnCompleted)))
	}
}
