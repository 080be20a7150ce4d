package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	orchestration "github.com/koscakluka/ema-storyteller/core"
	"github.com/koscakluka/ema-storyteller/core/audio/miniaudio"
	"github.com/koscakluka/ema-storyteller/core/audio/portaudio"
	"github.com/koscakluka/ema-storyteller/core/imagegeneration"
	"github.com/koscakluka/ema-storyteller/core/imagegeneration/gemini"
	"github.com/koscakluka/ema-storyteller/core/llms/ollama"
	sttdeepgram "github.com/koscakluka/ema-storyteller/core/speechtotext/deepgram"
	ttsdeepgram "github.com/koscakluka/ema-storyteller/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-storyteller/internal/config"
)

var errNoAudioInput = errors.New("no audio input")

// app owns the clients an orchestrator is wired to.
type app struct {
	orchestrator *orchestration.Orchestrator
	llm          *ollama.Client
	speaker      *ttsdeepgram.TextToSpeechClient
	closers      []func() error
}

type appOptions struct {
	audio  bool
	images bool
	extra  []orchestration.OrchestratorOption
}

func newApp(ctx context.Context, cfg config.Config, options appOptions) (*app, error) {
	a := &app{
		llm: ollama.NewClient(
			ollama.WithURL(cfg.Ollama.URL),
			ollama.WithModel(cfg.Ollama.Model),
			ollama.WithContextSeed(strings.TrimRight(cfg.Conversation.Context, "\n")),
			ollama.WithGatingMarker(cfg.Ollama.GatingMarker),
		),
	}
	opts := []orchestration.OrchestratorOption{
		orchestration.WithLanguage(cfg.SpeechToText.Lang),
		orchestration.WithStreamingLLM(a.llm),
	}

	if options.audio {
		audioOpts, err := a.wireAudio(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, audioOpts...)
	}

	if options.images && !cfg.ImageGeneration.Disabled {
		generator, err := gemini.NewGenerator(ctx, cfg.ImageGeneration.APIKey, cfg.ImageGeneration.Model,
			imagegeneration.WithStylePrefix(cfg.ImageGeneration.StylePrefix),
			imagegeneration.WithAspectRatio(cfg.ImageGeneration.AspectRatio),
		)
		if err != nil {
			logger.WarnContext(ctx, "illustrations disabled", "error", err)
		} else {
			opts = append(opts, orchestration.WithImageGenerator(generator))
		}
	}

	a.orchestrator = orchestration.NewOrchestrator(append(opts, options.extra...)...)
	return a, nil
}

// wireAudio opens the microphone and, unless speech is disabled, the
// speaker. Playback always goes through miniaudio.
func (a *app) wireAudio(cfg config.Config) ([]orchestration.OrchestratorOption, error) {
	device, err := miniaudio.NewClient(cfg.Audio.FramesPerBuffer)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open audio device: %w", errNoAudioInput, err)
	}
	a.closers = append(a.closers, device.Close)

	var capture orchestration.AudioCapture = device
	if cfg.Audio.Backend == config.AudioBackendPortaudio {
		microphone, err := portaudio.NewClient(cfg.Audio.FramesPerBuffer)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open microphone: %w", errNoAudioInput, err)
		}
		a.closers = append(a.closers, microphone.Close)
		capture = microphone
	}

	stt, err := sttdeepgram.NewTranscriptionClient(
		sttdeepgram.WithAPIKey(cfg.SpeechToText.APIKey),
		sttdeepgram.WithURL(cfg.SpeechToText.URL),
		sttdeepgram.WithModel(cfg.SpeechToText.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("speech recognition: %w", err)
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithAudioCapture(capture),
		orchestration.WithSpeechToTextClient(stt),
	}

	if cfg.TextToSpeech.Disabled {
		return opts, nil
	}

	voice, ok := ttsdeepgram.ParseVoice(cfg.TextToSpeech.Voice)
	if !ok {
		return nil, fmt.Errorf("unknown voice %q", cfg.TextToSpeech.Voice)
	}
	speaker, err := ttsdeepgram.NewTextToSpeechClient(voice, device,
		ttsdeepgram.WithAPIKey(cfg.TextToSpeech.APIKey),
		ttsdeepgram.WithURL(cfg.TextToSpeech.URL),
	)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	a.speaker = speaker

	return append(opts,
		orchestration.WithSpeaker(speaker),
		orchestration.WithWaitMessages(cfg.Conversation.RecognitionWaitMsg, cfg.Conversation.LLMWaitMsg),
	), nil
}

// preload loads the model in the background and reports through done once
// the backend answered.
func (a *app) preload(ctx context.Context, done func(err error)) {
	go func() {
		err := a.llm.Preload(ctx)
		if err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "failed to preload model", "model", a.llm.Model(), "error", err)
		}
		done(err)
	}()
}

// greet speaks the greeting outside of any turn.
func (a *app) greet(ctx context.Context, greeting string) {
	if a.speaker == nil || greeting == "" {
		return
	}
	go func() {
		if err := a.speaker.Speak(ctx, greeting); err != nil && ctx.Err() == nil {
			logger.WarnContext(ctx, "failed to speak greeting", "error", err)
		}
	}()
}

func (a *app) Close() error {
	if a.orchestrator != nil {
		a.orchestrator.Close()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
