package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-storyteller/core/events"
)

// dispatchEvents is the only place sinks and callbacks are invoked from, so
// they never run concurrently with each other.
func (o *Orchestrator) dispatchEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-o.events:
			o.handleEvent(ctx, event)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, event events.Event) {
	t := o.currentTurn.Load()
	if t == nil || t.id != event.TurnID() {
		logger.DebugContext(ctx, "dropping event of superseded turn",
			"kind", event.Kind(),
			"turn.id", event.TurnID(),
		)
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.ErrorContext(ctx, "event handler panicked",
				"kind", event.Kind(),
				"error", fmt.Errorf("%v", recovered),
			)
		}
	}()

	switch e := event.(type) {
	case events.UserAudioEnergy:
		if o.callbacks.onEnergy != nil {
			o.callbacks.onEnergy(e.Energy)
		}

	case events.UserTranscriptSegment:
		if o.display != nil {
			o.display.ShowStatus("Heard: " + e.Segment)
		}

	case events.UserTranscriptFinal:
		if o.callbacks.onTranscription != nil {
			o.callbacks.onTranscription(e.Transcript)
		}

	case events.AssistantResponseSegment:
		t.appendResponse(e.Segment)
		t.speech.AddChunk(e.Segment)
		if o.display != nil {
			o.display.ShowText(t.id, e.Segment)
		}
		if o.callbacks.onResponse != nil {
			o.callbacks.onResponse(e.Segment)
		}

	case events.AssistantResponseFinal:
		t.speech.TextComplete()
		if o.callbacks.onResponseEnd != nil {
			o.callbacks.onResponseEnd(e.Response)
		}

	case events.AssistantImageGenerated:
		if o.display != nil {
			o.display.ShowImage(t.id, e.Image)
		}
		if o.callbacks.onImage != nil {
			o.callbacks.onImage(e.Image)
		}

	case events.TurnStateChanged:
		status := TurnStatus(e.Status)
		if status.IsTerminal() {
			t.speech.TextComplete()
		}
		snapshot := t.snapshot()
		if o.display != nil {
			o.display.ShowStatus(statusText(status, snapshot.Err))
		}
		if o.callbacks.onTurnState != nil {
			snapshot.Status = status
			o.callbacks.onTurnState(snapshot)
		}

	case events.TurnFailed:
		if o.callbacks.onError != nil {
			o.callbacks.onError(e.Err)
		}

	default:
		logger.DebugContext(ctx, "unhandled event", "kind", event.Kind())
	}
}

func statusText(status TurnStatus, err error) string {
	switch status {
	case TurnCapturing:
		return "Listening..."
	case TurnTranscribing:
		return "Recognizing..."
	case TurnDispatched:
		return "Thinking..."
	case TurnFailed:
		if errors.Is(err, ErrCaptureEmpty) {
			return ""
		}
		if err != nil {
			return "Something went wrong: " + err.Error()
		}
		return "Something went wrong"
	default:
		return ""
	}
}
