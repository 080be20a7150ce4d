// Package ollama streams replies from an Ollama compatible /api/generate
// endpoint and segments them into speakable chunks.
package ollama

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-storyteller/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL   = "http://localhost:11434/api/generate"
	DefaultModel = "deepseek-r1:7b"

	// maxRecordSize bounds a single stream line. The done record carries the
	// whole conversation context, which easily exceeds bufio's default.
	maxRecordSize = 4 << 20
)

// Client talks to one backend and keeps at most one stream open at a time:
// opening a stream closes the previous one.
type Client struct {
	url          string
	model        string
	contextSeed  string
	gatingMarker string
	terminators  []string
	httpClient   *http.Client

	mu          sync.Mutex
	streamID    uint64
	closeStream context.CancelFunc

	state atomic.Int32
}

type ClientOption func(*Client)

func WithURL(url string) ClientOption {
	return func(c *Client) { c.url = url }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithContextSeed prefixes every prompt with seed and a newline.
func WithContextSeed(seed string) ClientOption {
	return func(c *Client) { c.contextSeed = seed }
}

// WithGatingMarker withholds everything the backend streams before the
// first fragment containing marker, typically a reasoning end tag.
func WithGatingMarker(marker string) ClientOption {
	return func(c *Client) { c.gatingMarker = marker }
}

func WithTerminators(terminators ...string) ClientOption {
	return func(c *Client) { c.terminators = slices.Clone(terminators) }
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		url:         DefaultURL,
		model:       DefaultModel,
		terminators: llms.DefaultTerminators,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}

	return client
}

func (c *Client) Model() string { return c.model }

// State reports the lifecycle state of the newest stream.
func (c *Client) State() llms.StreamState { return llms.StreamState(c.state.Load()) }

// Close abandons the open stream, if any.
func (c *Client) Close() {
	c.mu.Lock()
	closeStream := c.closeStream
	c.closeStream = nil
	c.mu.Unlock()

	if closeStream != nil {
		closeStream()
	}
}

func (c *Client) openStream(ctx context.Context) (context.Context, uint64, func()) {
	streamCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	previous := c.closeStream
	c.streamID++
	id := c.streamID
	c.closeStream = cancel
	c.mu.Unlock()

	if previous != nil {
		previous()
	}

	release := func() {
		c.mu.Lock()
		if c.streamID == id {
			c.closeStream = nil
		}
		c.mu.Unlock()
		cancel()
	}

	return streamCtx, id, release
}

func (c *Client) setState(id uint64, state llms.StreamState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streamID == id {
		c.state.Store(int32(state))
	}
}
