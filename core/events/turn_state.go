package events

const (
	// KindTurnStateChanged identifies turn status transitions.
	KindTurnStateChanged Kind = "turn_state.changed"
	// KindTurnFailed identifies task failures within a turn.
	KindTurnFailed Kind = "turn_state.failed"
)

// TurnStateChanged reports the status a turn moved to.
type TurnStateChanged struct {
	Base
	Status string
}

func NewTurnStateChanged(turnID int64, status string) TurnStateChanged {
	return TurnStateChanged{Base: NewBase(KindTurnStateChanged, turnID), Status: status}
}

// TurnFailed carries the error of a failed task.
type TurnFailed struct {
	Base
	Err error
}

func NewTurnFailed(turnID int64, err error) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed, turnID), Err: err}
}
