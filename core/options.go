package orchestration

import (
	"context"

	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/llms"
	"github.com/koscakluka/ema-storyteller/core/speechtotext"
)

type OrchestratorOption func(*Orchestrator)

type AudioCapture interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context) error
	// ReadFrame blocks until the next frame of mono samples is available.
	ReadFrame(ctx context.Context) ([]int16, error)
	StopCapture() error
}

func WithAudioCapture(capture AudioCapture) OrchestratorOption {
	return func(o *Orchestrator) { o.capture = capture }
}

type SpeechToText interface {
	Transcribe(ctx context.Context, waveform []float32, opts ...speechtotext.TranscriptionOption) (string, error)
}

func WithSpeechToTextClient(client SpeechToText) OrchestratorOption {
	return func(o *Orchestrator) { o.speechToText = client }
}

type StreamingLLM interface {
	Ask(ctx context.Context, request llms.Request, isCurrent func() bool, onChunk func(chunk string)) (llms.Outcome, error)
}

func WithStreamingLLM(client StreamingLLM) OrchestratorOption {
	return func(o *Orchestrator) { o.llm = client }
}

// ImageGenerator returns nil without an error when no image was produced.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

func WithImageGenerator(generator ImageGenerator) OrchestratorOption {
	return func(o *Orchestrator) { o.imageGenerator = generator }
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

func WithSpeaker(speaker Speaker) OrchestratorOption {
	return func(o *Orchestrator) { o.speaker = speaker }
}

type Display interface {
	ShowText(turnID int64, text string)
	ShowImage(turnID int64, image []byte)
	ShowStatus(status string)
}

func WithDisplay(display Display) OrchestratorOption {
	return func(o *Orchestrator) { o.display = display }
}

func WithLanguage(language string) OrchestratorOption {
	return func(o *Orchestrator) {
		if language != "" {
			o.language = language
		}
	}
}

// WithWaitMessages sets what is spoken while the turn waits on
// transcription and on the first reply. Empty messages are skipped.
func WithWaitMessages(recognition, generation string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognitionWaitMessage = recognition
		o.generationWaitMessage = generation
	}
}

type OrchestrateOptions struct {
	onTranscription func(transcript string)
	onResponse      func(response string)
	onResponseEnd   func(response string)
	onImage         func(image []byte)
	onEnergy        func(energy float64)
	onTurnState     func(turn Turn)
	onError         func(err error)
}

type OrchestrateOption func(*OrchestrateOptions)

func WithTranscriptionCallback(callback func(transcript string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTranscription = callback }
}

func WithResponseCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponse = callback }
}

// WithResponseEndCallback receives the whole reply once the stream is done.
func WithResponseEndCallback(callback func(response string)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onResponseEnd = callback }
}

func WithImageCallback(callback func(image []byte)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onImage = callback }
}

// WithEnergyCallback receives the RMS energy of every captured frame.
func WithEnergyCallback(callback func(energy float64)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onEnergy = callback }
}

func WithTurnStateCallback(callback func(turn Turn)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onTurnState = callback }
}

func WithErrorCallback(callback func(err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) { o.onError = callback }
}
