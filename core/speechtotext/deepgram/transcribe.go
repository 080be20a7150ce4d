package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Transcribe sends the whole waveform over a fresh socket, closes the stream
// and returns every final segment joined by spaces. A waveform without
// speech yields an empty transcript and no error.
func (c *TranscriptionClient) Transcribe(
	ctx context.Context,
	waveform []float32,
	opts ...speechtotext.TranscriptionOption,
) (transcript string, err error) {
	options := speechtotext.NewTranscriptionOptions(opts...)

	ctx, span := tracer.Start(ctx, "transcribe waveform")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", c.model),
		attribute.String("request.language", options.Language),
		attribute.Int("request.samples", len(waveform)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return "", fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := c.connectWebsocket(ctx, connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format,
		language:   languageCode(options.Language),
	})
	if err != nil {
		return "", fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	// Unblocks reads and writes when the caller gives up on the turn.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	accumulator := &transcriptAccumulator{onFinal: options.PartialTranscriptionCallback}
	readErr := make(chan error, 1)
	go func() { readErr <- readMessages(ctx, conn, accumulator) }()

	if err := c.sendWaveform(conn, waveform); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", err
	}

	select {
	case err := <-readErr:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err != nil {
			return "", err
		}
	case <-ctx.Done():
		return "", ctx.Err()
	}

	transcript = accumulator.transcript()
	span.SetAttributes(attribute.Int("response.length", len(transcript)))
	return transcript, nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	language   string
}

func (c *TranscriptionClient) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenUrl, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")

	listenUrl.RawQuery = queryParams.Encode()
	conn, _, err := c.dialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (c *TranscriptionClient) sendWaveform(conn *websocket.Conn, waveform []float32) error {
	pcm := audio.Linear16(waveform)
	for start := 0; start < len(pcm); start += c.chunkSize {
		end := min(start+c.chunkSize, len(pcm))
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[start:end]); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

// readMessages accumulates results until the server closes the socket after
// the close stream request.
func readMessages(ctx context.Context, conn *websocket.Conn, accumulator *transcriptAccumulator) error {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		if err := accumulator.process(msg); err != nil {
			logger.DebugContext(ctx, "skipping deepgram message", "error", err)
		}
	}
}

type transcriptAccumulator struct {
	onFinal func(transcript string)

	segments []string
	mu       sync.Mutex
}

var errUnexpectedMessage = errors.New("unexpected deepgram message")

func (a *transcriptAccumulator) process(msg []byte) error {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		return fmt.Errorf("failed to unmarshal deepgram message: %w", err)
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			return fmt.Errorf("failed to unmarshal deepgram results: %w", err)
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			return nil
		}

		transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript)
		if transcript == "" {
			return nil
		}
		a.mu.Lock()
		a.segments = append(a.segments, transcript)
		a.mu.Unlock()
		if a.onFinal != nil {
			a.onFinal(transcript)
		}
		return nil

	case api.TypeSpeechStartedResponse, api.TypeUtteranceEndResponse:
		return nil

	case "Metadata":
		return nil

	default:
		return fmt.Errorf("%w: %s", errUnexpectedMessage, parsedMsg.Type)
	}
}

func (a *transcriptAccumulator) transcript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.Join(a.segments, " ")
}
