package orchestration

import (
	"context"
	"strings"
	"sync"
)

type TurnStatus string

const (
	TurnCapturing    TurnStatus = "capturing"
	TurnTranscribing TurnStatus = "transcribing"
	TurnDispatched   TurnStatus = "dispatched"
	TurnCompleted    TurnStatus = "completed"
	TurnSuperseded   TurnStatus = "superseded"
	TurnFailed       TurnStatus = "failed"
)

func (s TurnStatus) IsTerminal() bool {
	switch s {
	case TurnCompleted, TurnSuperseded, TurnFailed:
		return true
	}
	return false
}

// Turn is a point-in-time snapshot of one user utterance and the reply to it.
type Turn struct {
	ID         int64
	Transcript string
	Response   string
	Status     TurnStatus
	Err        error
}

type turn struct {
	id int64
	// ctx is cancelled once the turn is superseded or the orchestrator closes.
	ctx    context.Context
	cancel context.CancelFunc
	speech *textBuffer

	mu           sync.Mutex
	transcript   string
	response     strings.Builder
	status       TurnStatus
	err          error
	responseDone bool
	imageDone    bool
}

func newTurn(parent context.Context, id int64, status TurnStatus) *turn {
	ctx, cancel := context.WithCancel(parent)
	return &turn{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		speech: newTextBuffer(),
		status: status,
	}
}

func (t *turn) snapshot() Turn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Turn{
		ID:         t.id,
		Transcript: t.transcript,
		Response:   t.response.String(),
		Status:     t.status,
		Err:        t.err,
	}
}

func (t *turn) Status() TurnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// transition moves a live turn to status. Terminal turns never move again.
func (t *turn) transition(status TurnStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return false
	}
	t.status = status
	return true
}

// dispatch records the transcript, which never changes afterwards.
func (t *turn) dispatch(transcript string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() || t.transcript != "" {
		return false
	}
	t.transcript = transcript
	t.status = TurnDispatched
	return true
}

// appendResponse concatenates chunks as streamed; they carry their own
// leading whitespace.
func (t *turn) appendResponse(chunk string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.response.WriteString(chunk)
}

// finishResponse and finishImage report true when the call completed the
// turn.
func (t *turn) finishResponse() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseDone = true
	return t.completeLocked()
}

func (t *turn) finishImage() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.imageDone = true
	return t.completeLocked()
}

func (t *turn) completeLocked() bool {
	if t.status != TurnDispatched || !t.responseDone || !t.imageDone {
		return false
	}
	t.status = TurnCompleted
	return true
}

func (t *turn) fail(err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.IsTerminal() {
		return false
	}
	t.status = TurnFailed
	t.err = err
	return true
}

// supersede ends a turn that has not reached a terminal status yet and stops
// whatever it is still speaking.
func (t *turn) supersede() bool {
	t.mu.Lock()
	superseded := !t.status.IsTerminal()
	if superseded {
		t.status = TurnSuperseded
	}
	t.mu.Unlock()

	t.speech.Clear()
	t.cancel()
	return superseded
}
