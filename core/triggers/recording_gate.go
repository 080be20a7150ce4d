// Package triggers holds the user-facing signals that start and end a turn.
package triggers

import (
	"sync/atomic"
	"time"
)

// RecordingGate is the level-triggered push-to-talk signal.
//
// The input loop writes it with Press/Release while the capture loop samples
// IsActive once per audio frame, so every method is safe for concurrent use.
// The gate never queues presses: IsActive only reflects the latest write.
type RecordingGate struct {
	active atomic.Bool
	// changedAt holds the UnixNano timestamp of the last level change.
	changedAt atomic.Int64
}

func NewRecordingGate() *RecordingGate {
	return &RecordingGate{}
}

func (g *RecordingGate) Press() {
	if !g.active.Swap(true) {
		g.changedAt.Store(time.Now().UnixNano())
	}
}

func (g *RecordingGate) Release() {
	if g.active.Swap(false) {
		g.changedAt.Store(time.Now().UnixNano())
	}
}

// Toggle flips the level and returns the new one. Terminals never report key
// releases, so the terminal UI drives the gate by toggling.
func (g *RecordingGate) Toggle() bool {
	for {
		current := g.active.Load()
		if g.active.CompareAndSwap(current, !current) {
			g.changedAt.Store(time.Now().UnixNano())
			return !current
		}
	}
}

func (g *RecordingGate) IsActive() bool { return g.active.Load() }

// ChangedAt reports when the level last changed; zero if it never did.
func (g *RecordingGate) ChangedAt() time.Time {
	if ts := g.changedAt.Load(); ts != 0 {
		return time.Unix(0, ts)
	}
	return time.Time{}
}
