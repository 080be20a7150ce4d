package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// Display forwards orchestrator output into a running program. Output sent
// before a program is attached is dropped. Safe for concurrent use.
type Display struct {
	program atomic.Pointer[tea.Program]
}

func NewDisplay() *Display {
	return &Display{}
}

func (d *Display) Attach(program *tea.Program) {
	d.program.Store(program)
}

func (d *Display) send(msg tea.Msg) {
	if program := d.program.Load(); program != nil {
		program.Send(msg)
	}
}

func (d *Display) ShowText(turnID int64, text string) {
	d.send(TextMsg{TurnID: turnID, Text: text})
}

func (d *Display) ShowImage(turnID int64, image []byte) {
	d.send(ImageMsg{TurnID: turnID, Image: image})
}

func (d *Display) ShowStatus(status string) {
	d.send(StatusMsg(status))
}

func (d *Display) ShowEnergy(energy float64) {
	d.send(EnergyMsg(energy))
}
