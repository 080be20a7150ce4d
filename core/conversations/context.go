// Package conversations holds the state carried from one turn to the next.
package conversations

import "slices"

// Context is the opaque conversation state returned by the text backend once
// an exchange completes. It is passed back unchanged with the next request.
type Context []int

// Clone returns a copy that can be handed to another goroutine.
func (c Context) Clone() Context {
	if c == nil {
		return nil
	}
	return slices.Clone(c)
}

func (c Context) Equal(other Context) bool { return slices.Equal(c, other) }

func (c Context) IsEmpty() bool { return len(c) == 0 }
