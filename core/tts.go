package orchestration

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// speakTurns speaks turns one after another in the order they started.
func (o *Orchestrator) speakTurns(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-o.speechTurns:
			o.speakTurn(t)
		}
	}
}

func (o *Orchestrator) speakTurn(t *turn) {
	ctx, span := tracer.Start(t.ctx, "speak turn")
	defer span.End()
	span.SetAttributes(attribute.Int64("turn.id", t.id))

	spoken := 0
	for chunk := range t.speech.Chunks(ctx) {
		if !o.isCurrentTurn(t.id) || ctx.Err() != nil {
			break
		}
		if err := o.speaker.Speak(ctx, chunk); err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.WarnContext(ctx, "failed to speak chunk", "turn.id", t.id, "error", err)
			continue
		}
		spoken++
	}
	span.SetAttributes(attribute.Int("speech.chunks", spoken))
}

func (o *Orchestrator) queueSpeech(t *turn, text string) {
	if text == "" || o.speaker == nil {
		return
	}
	t.speech.AddChunk(text)
}
