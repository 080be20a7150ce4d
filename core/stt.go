package orchestration

import (
	"fmt"
	"strings"

	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/events"
	"github.com/koscakluka/ema-storyteller/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
)

func (o *Orchestrator) transcribe(t *turn, samples []int16) {
	o.slot.Store(int32(SlotTranscribing))
	if !t.transition(TurnTranscribing) {
		o.slot.Store(int32(SlotIdle))
		return
	}
	o.emit(events.NewTurnStateChanged(t.id, string(TurnTranscribing)))
	o.queueSpeech(t, o.recognitionWaitMessage)

	ctx, span := tracer.Start(t.ctx, "transcribe turn")
	defer span.End()

	encoding := o.capture.EncodingInfo()
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}
	span.SetAttributes(attribute.Float64("audio.duration", encoding.Duration(len(samples))))

	if o.speechToText == nil {
		o.failTurn(t, fmt.Errorf("%w: no speech-to-text client configured", ErrTranscriptionFailed))
		o.slot.Store(int32(SlotIdle))
		return
	}

	transcript, err := o.speechToText.Transcribe(ctx, audio.Waveform(samples),
		speechtotext.WithLanguage(o.language),
		speechtotext.WithEncodingInfo(encoding),
		speechtotext.WithPartialTranscriptionCallback(func(segment string) {
			o.emit(events.NewUserTranscriptSegment(t.id, segment))
		}),
	)
	if err != nil {
		o.failTurn(t, fmt.Errorf("%w: %w", ErrTranscriptionFailed, err))
		o.slot.Store(int32(SlotIdle))
		return
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		o.failTurn(t, ErrEmptyTranscript)
		o.slot.Store(int32(SlotIdle))
		return
	}

	o.queueSpeech(t, transcript)
	o.dispatch(t, transcript)
}
