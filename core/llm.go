package orchestration

import (
	"context"
	"strings"

	"github.com/koscakluka/ema-storyteller/core/events"
	"github.com/koscakluka/ema-storyteller/core/llms"
	"github.com/koscakluka/ema-storyteller/core/tasks"
	"go.opentelemetry.io/otel/attribute"
)

// dispatch publishes the transcript and starts the text and image requests
// for it. The slot is idle again once dispatch returns.
func (o *Orchestrator) dispatch(t *turn, prompt string) {
	defer o.slot.Store(int32(SlotIdle))

	if !t.dispatch(prompt) {
		return
	}
	o.slot.Store(int32(SlotDispatched))
	o.emit(events.NewUserTranscriptFinal(t.id, prompt))
	o.emit(events.NewTurnStateChanged(t.id, string(TurnDispatched)))

	if o.llm == nil {
		o.failTurn(t, ErrNoLanguageModel)
		return
	}
	o.queueSpeech(t, o.generationWaitMessage)

	request := turnRequest{
		turnID:  t.id,
		prompt:  prompt,
		context: o.conversation.Snapshot(),
	}
	o.responseTask.Start(o.baseContext, request)
	if o.imageGenerator != nil {
		o.imageTask.Start(o.baseContext, request)
	} else {
		t.finishImage()
	}
}

func (o *Orchestrator) generateResponse(ctx context.Context, request turnRequest, token tasks.Token) (llms.Outcome, error) {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("turn.id", request.turnID),
		attribute.Int("request.context_length", len(request.context)),
	)

	return o.llm.Ask(ctx,
		llms.Request{Prompt: request.prompt, Context: request.context},
		func() bool { return o.responseTask.IsCurrent(token) },
		func(chunk string) {
			if o.responseTask.IsCurrent(token) {
				o.emit(events.NewAssistantResponseSegment(request.turnID, chunk))
			}
		},
	)
}

func (o *Orchestrator) onResponseResult(result tasks.Result[turnRequest, llms.Outcome]) {
	t := o.currentTurn.Load()
	if t == nil || t.id != result.Input.turnID {
		logger.DebugContext(o.baseContext, "dropping response of superseded turn", "turn.id", result.Input.turnID)
		return
	}

	outcome := result.Value
	if outcome.IsDone() && outcome.Context != nil {
		o.conversation.ReplaceIf(outcome.Context, func() bool {
			return o.responseTask.IsCurrent(result.Token) && o.isCurrentTurn(t.id)
		})
	}
	o.emit(events.NewAssistantResponseFinal(t.id, strings.Join(outcome.Delivered, "")))

	if result.Err != nil {
		o.failTurn(t, result.Err)
		return
	}
	if t.finishResponse() {
		o.emit(events.NewTurnStateChanged(t.id, string(TurnCompleted)))
	}
}
