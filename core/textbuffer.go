package orchestration

import (
	"context"
	"iter"
	"sync"
)

// textBuffer queues the chunks a turn wants spoken. A single consumer drains
// it with Chunks while producers keep appending.
type textBuffer struct {
	mu       sync.Mutex
	chunks   []string
	consumed int
	complete bool
	cleared  bool

	updateSignal chan struct{}
}

func newTextBuffer() *textBuffer {
	return &textBuffer{updateSignal: make(chan struct{}, 1)}
}

func (b *textBuffer) AddChunk(chunk string) {
	b.mu.Lock()
	if b.complete || b.cleared {
		b.mu.Unlock()
		return
	}
	b.chunks = append(b.chunks, chunk)
	b.mu.Unlock()
	b.signalUpdate()
}

// TextComplete lets Chunks finish once everything queued so far is consumed.
func (b *textBuffer) TextComplete() {
	b.mu.Lock()
	b.complete = true
	b.mu.Unlock()
	b.signalUpdate()
}

// Clear drops whatever was not consumed yet and ends Chunks immediately.
func (b *textBuffer) Clear() {
	b.mu.Lock()
	b.cleared = true
	b.chunks = nil
	b.consumed = 0
	b.mu.Unlock()
	b.signalUpdate()
}

// Chunks yields queued chunks in order, blocking for new ones until the
// buffer is complete, cleared or ctx is done.
func (b *textBuffer) Chunks(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			b.mu.Lock()
			if b.cleared {
				b.mu.Unlock()
				return
			}
			if b.consumed < len(b.chunks) {
				chunk := b.chunks[b.consumed]
				b.consumed++
				b.mu.Unlock()
				if !yield(chunk) {
					return
				}
				continue
			}
			complete := b.complete
			b.mu.Unlock()
			if complete {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-b.updateSignal:
			}
		}
	}
}

func (b *textBuffer) signalUpdate() {
	select {
	case b.updateSignal <- struct{}{}:
	default:
	}
}
