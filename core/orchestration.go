// Package orchestration sequences push-to-talk turns: capture, transcription
// and the concurrent text and image requests that answer them. At most one
// turn is active; starting a turn supersedes everything the previous one
// still has in flight.
package orchestration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-storyteller/core/conversations"
	"github.com/koscakluka/ema-storyteller/core/events"
	"github.com/koscakluka/ema-storyteller/core/llms"
	"github.com/koscakluka/ema-storyteller/core/speechtotext"
	"github.com/koscakluka/ema-storyteller/core/tasks"
	"github.com/koscakluka/ema-storyteller/core/triggers"
)

var (
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrEmptyTranscript     = errors.New("transcription returned no text")
	ErrCaptureEmpty        = errors.New("capture yielded no audio")
	ErrTurnInProgress      = errors.New("a turn is still being captured or transcribed")
	ErrNotOrchestrating    = errors.New("orchestrator is not running")
	ErrNoLanguageModel     = errors.New("no language model configured")
)

const eventQueueSize = 256
const speechQueueSize = 64

type SlotState int32

const (
	SlotIdle SlotState = iota
	SlotCapturing
	SlotTranscribing
	SlotDispatched
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotCapturing:
		return "capturing"
	case SlotTranscribing:
		return "transcribing"
	case SlotDispatched:
		return "dispatched"
	}
	return "unknown"
}

type turnRequest struct {
	turnID  int64
	prompt  string
	context conversations.Context
}

type Orchestrator struct {
	gate         *triggers.RecordingGate
	slot         atomic.Int32
	turnIDs      atomic.Int64
	currentTurn  atomic.Pointer[turn]
	conversation conversation

	capture        AudioCapture
	speechToText   SpeechToText
	llm            StreamingLLM
	imageGenerator ImageGenerator
	speaker        Speaker
	display        Display

	language               string
	recognitionWaitMessage string
	generationWaitMessage  string

	responseTask *tasks.Task[turnRequest, llms.Outcome]
	imageTask    *tasks.Task[turnRequest, []byte]

	events      chan events.Event
	speechTurns chan *turn
	callbacks   OrchestrateOptions

	sessionID   string
	baseContext context.Context
	cancel      context.CancelFunc

	// mu orders turn creation against Close.
	mu          sync.Mutex
	started     bool
	closed      bool
	closeOnce   sync.Once
	workers     sync.WaitGroup
	turnWorkers sync.WaitGroup
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gate:        triggers.NewRecordingGate(),
		language:    speechtotext.DefaultLanguage,
		events:      make(chan events.Event, eventQueueSize),
		speechTurns: make(chan *turn, speechQueueSize),
		sessionID:   uuid.NewString(),
		baseContext: context.Background(),
		cancel:      func() {},
	}

	// Text and image requests of one turn, plus one predecessor of each
	// still draining after supersession.
	o.responseTask = tasks.New("response", o.generateResponse, o.onResponseResult, tasks.WithMaxInFlight(2))
	o.imageTask = tasks.New("image", o.generateImage, o.onImageResult, tasks.WithMaxInFlight(2))

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Orchestrate starts delivering turn events to the configured sinks and
// callbacks. Triggers and prompts are ignored until it is called.
//
// ctx bounds the whole session; once it is done the orchestrator closes.
// Orchestrate may be called only once.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		logger.WarnContext(ctx, "orchestrator already closed, skipping Orchestrate")
		return
	}
	if o.started {
		logger.WarnContext(ctx, "orchestrator already running, skipping Orchestrate")
		return
	}

	o.callbacks = OrchestrateOptions{}
	for _, opt := range opts {
		opt(&o.callbacks)
	}

	o.baseContext, o.cancel = context.WithCancel(ctx)
	o.started = true

	o.startWorker(o.baseContext, "event dispatcher", o.dispatchEvents)
	if o.speaker != nil {
		o.startWorker(o.baseContext, "speech", o.speakTurns)
	}

	go func() {
		<-o.baseContext.Done()
		o.Close()
	}()
}

// Close stops every turn and worker and waits for them to return. It is safe
// to call more than once.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()

		o.responseTask.CancelCurrent()
		o.imageTask.CancelCurrent()
		if t := o.currentTurn.Load(); t != nil {
			t.speech.Clear()
			t.cancel()
		}
		o.cancel()

		o.turnWorkers.Wait()
		o.responseTask.Wait()
		o.imageTask.Wait()
		o.workers.Wait()
	})
}

// PressTrigger raises the recording gate and, when no turn is being captured
// or transcribed, starts a new turn. It never blocks.
func (o *Orchestrator) PressTrigger() {
	o.gate.Press()
	o.startCapturing()
}

func (o *Orchestrator) ReleaseTrigger() {
	o.gate.Release()
}

// ToggleTrigger flips the gate for inputs that cannot report a release. A
// toggle that cannot start a turn leaves the gate lowered.
func (o *Orchestrator) ToggleTrigger() {
	if o.gate.Toggle() && !o.startCapturing() {
		o.gate.Release()
	}
}

func (o *Orchestrator) IsRecording() bool { return o.gate.IsActive() }

// SendPrompt answers a typed prompt as a new turn, skipping capture and
// transcription.
func (o *Orchestrator) SendPrompt(prompt string) error {
	if !o.slot.CompareAndSwap(int32(SlotIdle), int32(SlotDispatched)) {
		return ErrTurnInProgress
	}

	if err := o.beginTurn(TurnDispatched, func(t *turn) { o.dispatch(t, prompt) }); err != nil {
		o.slot.Store(int32(SlotIdle))
		return err
	}
	return nil
}

// Conversation returns a copy of the current conversation context.
func (o *Orchestrator) Conversation() conversations.Context {
	return o.conversation.Snapshot()
}

// Turn returns a snapshot of the latest turn, or a zero Turn before the
// first one.
func (o *Orchestrator) Turn() Turn {
	if t := o.currentTurn.Load(); t != nil {
		return t.snapshot()
	}
	return Turn{}
}

func (o *Orchestrator) State() SlotState {
	return SlotState(o.slot.Load())
}

func (o *Orchestrator) isCurrentTurn(id int64) bool {
	t := o.currentTurn.Load()
	return t != nil && t.id == id
}
