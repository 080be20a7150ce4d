package texttospeech

import "github.com/koscakluka/ema-storyteller/core/audio"

type SpeechOptions struct {
	Voice        string
	EncodingInfo audio.EncodingInfo
}

type SpeechOption func(*SpeechOptions)

func NewSpeechOptions(opts ...SpeechOption) SpeechOptions {
	options := SpeechOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithVoice overrides the client's voice for a single request.
func WithVoice(voice string) SpeechOption {
	return func(o *SpeechOptions) { o.Voice = voice }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeechOption {
	return func(o *SpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}
