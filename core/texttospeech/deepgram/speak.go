package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoPlayer = errors.New("no audio player configured")

// Speak synthesizes text with the client's voice and plays it, returning
// once playback has finished. Cancelling ctx stops both the request and
// playback.
func (c *TextToSpeechClient) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.player == nil {
		return ErrNoPlayer
	}

	speech, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if err := c.player.Play(ctx, speech); err != nil {
		return fmt.Errorf("failed to play speech: %w", err)
	}
	return nil
}

// Synthesize returns raw linear16 audio for text.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SpeechOption) (speech []byte, err error) {
	options := texttospeech.NewSpeechOptions(opts...)
	voice := c.voice
	if options.Voice != "" {
		parsed, ok := ParseVoice(options.Voice)
		if !ok {
			return nil, fmt.Errorf("invalid voice: %s", options.Voice)
		}
		voice = parsed
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", string(voice)),
		attribute.Int("request.length", len(text)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	speakUrl, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakUrl.Query()
	urlValues.Set("model", string(voice))
	urlValues.Set("encoding", audio.EncodingLinear16.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("container", "none")
	speakUrl.RawQuery = urlValues.Encode()

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, speakUrl.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.WarnContext(ctx, "speech synthesis rejected", "status", resp.Status, "body", string(msg))
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	speech, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading speech: %w", err)
	}
	span.SetAttributes(attribute.Int("response.bytes", len(speech)))
	return speech, nil
}
