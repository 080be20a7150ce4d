package orchestration

import (
	"sync"

	"github.com/koscakluka/ema-storyteller/core/conversations"
)

// conversation owns the context the backend returns on every finished reply.
type conversation struct {
	mu      sync.RWMutex
	context conversations.Context
}

func (c *conversation) Snapshot() conversations.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.context.Clone()
}

// ReplaceIf swaps in next only while isCurrent still holds, checked under the
// write lock so a newer turn cannot interleave.
func (c *conversation) ReplaceIf(next conversations.Context, isCurrent func() bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !isCurrent() {
		return false
	}
	c.context = next.Clone()
	return true
}
