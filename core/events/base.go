package events

import "time"

type Kind string

type Event interface {
	Kind() Kind
	// TurnID identifies the turn the event was produced for.
	TurnID() int64
	Timestamp() time.Time
}

type Base struct {
	kind      Kind
	turnID    int64
	timestamp time.Time
}

func NewBase(kind Kind, turnID int64) Base {
	return Base{kind: kind, turnID: turnID, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) TurnID() int64 {
	return b.turnID
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
