package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/koscakluka/ema-storyteller/core/conversations"
	"github.com/koscakluka/ema-storyteller/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type requestBody struct {
	Model   string                `json:"model"`
	Stream  bool                  `json:"stream"`
	Context conversations.Context `json:"context"`
	Prompt  string                `json:"prompt"`
}

type streamRecord struct {
	Response string                `json:"response"`
	Error    string                `json:"error,omitempty"`
	Done     bool                  `json:"done"`
	Context  conversations.Context `json:"context,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Ask streams a reply to request and hands speakable chunks to onChunk as
// soon as they are complete.
//
// isCurrent is checked before every record; once it reports false the stream
// is closed and Ask returns with a cancelled outcome. The updated
// conversation context is returned, never stored.
func (c *Client) Ask(
	ctx context.Context,
	request llms.Request,
	isCurrent func() bool,
	onChunk func(chunk string),
) (llms.Outcome, error) {
	if isCurrent == nil {
		isCurrent = func() bool { return true }
	}
	if onChunk == nil {
		onChunk = func(string) {}
	}

	ctx, span := tracer.Start(ctx, "prompt llm stream")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	streamCtx, streamID, release := c.openStream(ctx)
	defer release()
	defer c.setState(streamID, llms.StreamIdle)
	c.setState(streamID, llms.StreamRequesting)

	outcome := llms.Outcome{}
	deliver := func(chunk string) {
		outcome.Delivered = append(outcome.Delivered, chunk)
		onChunk(chunk)
	}
	finish := func(status llms.StreamState, err error) (llms.Outcome, error) {
		outcome.Status = status
		c.setState(streamID, status)
		span.SetAttributes(
			attribute.String("response.status", status.String()),
			attribute.Int("response.records", outcome.Records),
			attribute.Int("response.chunks", len(outcome.Delivered)),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return outcome, err
	}
	failTransport := func(cause error) (llms.Outcome, error) {
		if !isCurrent() || streamCtx.Err() != nil {
			span.AddEvent("stream superseded")
			return finish(llms.StreamCancelled, nil)
		}
		deliver(llms.ErrorChunkPrefix + cause.Error())
		return finish(llms.StreamFailed, fmt.Errorf("%w: %w", llms.ErrTransport, cause))
	}

	requestBodyBytes, err := json.Marshal(c.newRequestBody(request))
	if err != nil {
		return finish(llms.StreamFailed, fmt.Errorf("error marshalling JSON: %w", err))
	}

	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		return failTransport(fmt.Errorf("error creating HTTP request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	requestStarted := time.Now()
	span.AddEvent("request started")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failTransport(fmt.Errorf("error sending request: %w", err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return failTransport(statusError(resp, span))
	}

	c.setState(streamID, llms.StreamStreaming)
	segmenter := llms.NewSegmenter(
		llms.WithTerminators(c.terminators...),
		llms.WithGatingMarker(c.gatingMarker),
	)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for scanner.Scan() {
		if !isCurrent() {
			segmenter.Reset()
			span.AddEvent("stream superseded")
			return finish(llms.StreamCancelled, nil)
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if outcome.Records == 0 {
			span.SetAttributes(attribute.Float64("response.request_to_first_record_time", time.Since(requestStarted).Seconds()))
		}

		var record streamRecord
		if err := json.Unmarshal(line, &record); err != nil {
			logger.DebugContext(ctx, "skipping stream record",
				"error", fmt.Errorf("%w: %w", llms.ErrParse, err))
			continue
		}
		outcome.Records++

		if segment, flushed, ok := segmenter.Push(record.Response); flushed && ok {
			deliver(segment)
		}

		if record.Error != "" {
			span.RecordError(fmt.Errorf("%w: %s", llms.ErrBackend, record.Error))
			if segmenter.IsOpen() {
				deliver(llms.ErrorChunkPrefix + record.Error)
			}
		}

		if record.Done {
			if residual, ok := segmenter.Flush(); ok {
				deliver(residual)
			}
			outcome.Context = record.Context
			return finish(llms.StreamDone, nil)
		}
	}

	if err := scanner.Err(); err != nil {
		return failTransport(fmt.Errorf("error reading streamed response: %w", err))
	}

	if !isCurrent() {
		return finish(llms.StreamCancelled, nil)
	}

	logger.WarnContext(ctx, "stream closed before done record", "records", outcome.Records)
	return finish(llms.StreamFailed, fmt.Errorf("%w: stream closed before done record", llms.ErrTransport))
}

func (c *Client) newRequestBody(request llms.Request) requestBody {
	prompt := request.Prompt
	if c.contextSeed != "" {
		prompt = c.contextSeed + "\n" + prompt
	}

	conversation := request.Context.Clone()
	if conversation == nil {
		conversation = conversations.Context{}
	}

	return requestBody{
		Model:   c.model,
		Stream:  true,
		Context: conversation,
		Prompt:  prompt,
	}
}

func statusError(resp *http.Response, span trace.Span) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		err = fmt.Errorf("error reading error body: %w", err)
		span.RecordError(err)
		return errors.Join(fmt.Errorf("non-OK HTTP status: %s", resp.Status), err)
	}
	span.SetAttributes(attribute.String("response.error", string(body)))

	var parsed errorBody
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		return fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, parsed.Error)
	}

	return fmt.Errorf("non-OK HTTP status: %s", resp.Status)
}
