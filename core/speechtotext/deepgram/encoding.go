package deepgram

import (
	"fmt"

	"github.com/koscakluka/ema-storyteller/core/audio"
)

type encodingInfo struct {
	SampleRate int
	Format     string
}

// convertEncoding maps the capture encoding onto what is sent over the
// socket. Waveforms are always re-encoded as linear16, so only the sample rate
// of the capture matters.
func convertEncoding(encoding audio.EncodingInfo) (*encodingInfo, error) {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return nil, fmt.Errorf("unsupported sample rate: %d", encoding.SampleRate)
	}

	if encoding.Format != "" && encoding.Format != audio.EncodingLinear16 {
		return nil, fmt.Errorf("unsupported capture encoding: %s", encoding.Format.Name())
	}

	return &encodingInfo{
		SampleRate: encoding.SampleRate,
		Format:     audio.EncodingLinear16.Name(),
	}, nil
}

// languageCode turns short codes from configuration into the regional
// variants the listen endpoint prefers.
func languageCode(language string) string {
	switch language {
	case "", "en":
		return "en-US"
	default:
		return language
	}
}
