package orchestration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-storyteller/core/audio"
	"github.com/koscakluka/ema-storyteller/core/llms"
	"github.com/koscakluka/ema-storyteller/core/speechtotext"
)

type captureStub struct {
	frame []int16

	started atomic.Int32
	stopped atomic.Int32
	reads   atomic.Int32
}

func (c *captureStub) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (c *captureStub) StartCapture(context.Context) error {
	c.started.Add(1)
	return nil
}

func (c *captureStub) ReadFrame(ctx context.Context) ([]int16, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	c.reads.Add(1)
	return append([]int16(nil), c.frame...), nil
}

func (c *captureStub) StopCapture() error {
	c.stopped.Add(1)
	return nil
}

type speechToTextStub struct {
	transcript string
	err        error
	// block, when set, holds Transcribe until it is closed.
	block chan struct{}

	calls    atomic.Int32
	samples  atomic.Int32
	language atomic.Value
}

func (s *speechToTextStub) Transcribe(ctx context.Context, waveform []float32, opts ...speechtotext.TranscriptionOption) (string, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	options := speechtotext.NewTranscriptionOptions(opts...)
	s.calls.Add(1)
	s.samples.Store(int32(len(waveform)))
	s.language.Store(options.Language)
	return s.transcript, s.err
}

type askFunc func(ctx context.Context, request llms.Request, isCurrent func() bool, onChunk func(string)) (llms.Outcome, error)

type llmStub struct {
	ask askFunc

	mu       sync.Mutex
	requests []llms.Request
}

func (l *llmStub) Ask(ctx context.Context, request llms.Request, isCurrent func() bool, onChunk func(string)) (llms.Outcome, error) {
	l.mu.Lock()
	l.requests = append(l.requests, request)
	l.mu.Unlock()
	return l.ask(ctx, request, isCurrent, onChunk)
}

func (l *llmStub) Requests() []llms.Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]llms.Request(nil), l.requests...)
}

type imageGeneratorStub struct {
	image []byte
	err   error
}

func (i imageGeneratorStub) Generate(context.Context, string) ([]byte, error) {
	return i.image, i.err
}

type speakerStub struct {
	mu     sync.Mutex
	spoken []string
}

func (s *speakerStub) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *speakerStub) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

type displayStub struct {
	mu       sync.Mutex
	texts    []string
	images   int
	statuses []string
}

func (d *displayStub) ShowText(_ int64, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.texts = append(d.texts, text)
}

func (d *displayStub) ShowImage(int64, []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.images++
}

func (d *displayStub) ShowStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, status)
}

func (d *displayStub) Texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

func (d *displayStub) Images() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.images
}

// recorder collects callback output.
type recorder struct {
	mu             sync.Mutex
	transcripts    []string
	responses      []string
	responseEnds   []string
	images         int
	errors         []error
	energyReported atomic.Int32
	states         []TurnStatus
}

func (r *recorder) options() []OrchestrateOption {
	return []OrchestrateOption{
		WithTranscriptionCallback(func(transcript string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transcripts = append(r.transcripts, transcript)
		}),
		WithResponseCallback(func(response string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.responses = append(r.responses, response)
		}),
		WithResponseEndCallback(func(response string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.responseEnds = append(r.responseEnds, response)
		}),
		WithImageCallback(func([]byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.images++
		}),
		WithEnergyCallback(func(float64) { r.energyReported.Add(1) }),
		WithTurnStateCallback(func(turn Turn) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, turn.Status)
		}),
		WithErrorCallback(func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, err)
		}),
	}
}

func (r *recorder) Responses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.responses...)
}

func (r *recorder) ResponseEnds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.responseEnds...)
}

func (r *recorder) Transcripts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.transcripts...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errors...)
}

func (r *recorder) Images() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images
}

func (r *recorder) HasState(status TurnStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, state := range r.states {
		if state == status {
			return true
		}
	}
	return false
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}
