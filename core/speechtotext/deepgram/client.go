// Package deepgram transcribes recorded waveforms with Deepgram's streaming
// listen endpoint.
package deepgram

import (
	"fmt"
	"os"

	"github.com/gorilla/websocket"
)

const (
	DefaultURL   = "wss://api.deepgram.com/v1/listen"
	DefaultModel = "nova-3"

	apiKeyEnv = "DEEPGRAM_API_KEY"

	// ~250ms of 16kHz linear16 per socket write
	defaultChunkSize = 8000
)

type TranscriptionClient struct {
	apiKey    string
	url       string
	model     string
	chunkSize int
	dialer    *websocket.Dialer
}

type ClientOption func(*TranscriptionClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TranscriptionClient) {
		c.apiKey = apiKey
	}
}

func WithURL(url string) ClientOption {
	return func(c *TranscriptionClient) {
		if url != "" {
			c.url = url
		}
	}
}

func WithModel(model string) ClientOption {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithChunkSize(size int) ClientOption {
	return func(c *TranscriptionClient) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// NewTranscriptionClient reads the API key from DEEPGRAM_API_KEY unless one
// is given with WithAPIKey.
func NewTranscriptionClient(opts ...ClientOption) (*TranscriptionClient, error) {
	client := &TranscriptionClient{
		url:       DefaultURL,
		model:     DefaultModel,
		chunkSize: defaultChunkSize,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.apiKey == "" {
		apiKey, ok := os.LookupEnv(apiKeyEnv)
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		client.apiKey = apiKey
	}

	return client, nil
}
