// Package deepgram synthesizes speech with Deepgram's speak endpoint and plays
// it on a local audio device.
package deepgram

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL = "https://api.deepgram.com/v1/speak"

	apiKeyEnv = "DEEPGRAM_API_KEY"
)

// Player plays linear16 audio and blocks until it has finished or ctx is
// done.
type Player interface {
	Play(ctx context.Context, linear16 []byte) error
}

type TextToSpeechClient struct {
	apiKey     string
	url        string
	voice      deepgramVoice
	player     Player
	httpClient *http.Client
}

type ClientOption func(*TextToSpeechClient)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *TextToSpeechClient) { c.apiKey = apiKey }
}

func WithURL(url string) ClientOption {
	return func(c *TextToSpeechClient) {
		if url != "" {
			c.url = url
		}
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *TextToSpeechClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewTextToSpeechClient(voice deepgramVoice, player Player, opts ...ClientOption) (*TextToSpeechClient, error) {
	client := &TextToSpeechClient{
		url:        DefaultURL,
		voice:      defaultVoice,
		player:     player,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}

	if voice != "" {
		if _, ok := ParseVoice(string(voice)); !ok {
			return nil, fmt.Errorf("invalid voice: %s", voice)
		}
		client.voice = voice
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

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}

func (c *TextToSpeechClient) Voice() deepgramVoice {
	return c.voice
}
