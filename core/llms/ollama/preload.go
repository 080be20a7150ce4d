package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type preloadBody struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

// Preload asks the backend to load the model into memory. A generate request
// without a prompt loads the model and returns immediately once it is ready.
func (c *Client) Preload(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "preload llm model")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	body, err := json.Marshal(preloadBody{Model: c.model})
	if err != nil {
		return fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return statusError(resp, span)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.DebugContext(ctx, "model loaded", "model", c.Model(), "duration", time.Since(started))
	return nil
}
