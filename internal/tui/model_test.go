package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type triggerStub struct {
	recording bool
	toggles   int
}

func (t *triggerStub) ToggleTrigger() {
	t.toggles++
	t.recording = !t.recording
}

func (t *triggerStub) IsRecording() bool { return t.recording }

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()

	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	return update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

func TestSpaceTogglesRecording(t *testing.T) {
	trigger := &triggerStub{}
	m := sized(t, NewModel(trigger, WithHint("Press space")))

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if trigger.toggles != 1 || !m.recording {
		t.Fatalf("expected recording after first space, got toggles=%d recording=%v", trigger.toggles, m.recording)
	}
	if !strings.Contains(m.View(), "REC") {
		t.Fatalf("expected recording indicator in view")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if trigger.toggles != 2 || m.recording {
		t.Fatalf("expected stopped recording after second space, got toggles=%d recording=%v", trigger.toggles, m.recording)
	}
}

func TestTextIsGroupedByTurn(t *testing.T) {
	m := sized(t, NewModel(&triggerStub{}))

	m = update(t, m, TextMsg{TurnID: 1, Text: "Once upon a time."})
	m = update(t, m, TextMsg{TurnID: 1, Text: " There was a fox."})
	m = update(t, m, TextMsg{TurnID: 2, Text: " The end."})

	if len(m.paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(m.paragraphs))
	}
	if m.paragraphs[0] != "Once upon a time. There was a fox." {
		t.Fatalf("expected joined first paragraph, got %q", m.paragraphs[0])
	}
	if !strings.Contains(m.View(), "The end.") {
		t.Fatalf("expected latest text in view")
	}
}

func TestStatusFallsBackToHint(t *testing.T) {
	m := sized(t, NewModel(&triggerStub{}, WithHint("Press space")))

	m = update(t, m, StatusMsg("Thinking..."))
	if !m.busy() || !strings.Contains(m.View(), "Thinking...") {
		t.Fatalf("expected busy status in view")
	}

	m = update(t, m, StatusMsg(""))
	if m.status != "Press space" || m.busy() {
		t.Fatalf("expected idle hint, got %q", m.status)
	}
}

func TestEnergyIsClamped(t *testing.T) {
	m := NewModel(&triggerStub{})

	m = update(t, m, EnergyMsg(3))
	if m.level != 1 {
		t.Fatalf("expected level 1, got %f", m.level)
	}
	m = update(t, m, EnergyMsg(-1))
	if m.level != 0 {
		t.Fatalf("expected level 0, got %f", m.level)
	}
}

func TestImagesAreSaved(t *testing.T) {
	dir := t.TempDir()
	m := sized(t, NewModel(&triggerStub{}, WithImageDir(dir)))

	m = update(t, m, ImageMsg{TurnID: 7, Image: []byte("png")})

	data, err := os.ReadFile(filepath.Join(dir, "turn-007.png"))
	if err != nil {
		t.Fatalf("expected saved image, got %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("expected image bytes, got %q", data)
	}
	if len(m.paragraphs) != 1 || !strings.Contains(m.paragraphs[0], "turn-007.png") {
		t.Fatalf("expected image to be announced, got %q", m.paragraphs)
	}
}

func TestQuitKeys(t *testing.T) {
	m := NewModel(&triggerStub{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if !next.(Model).quitting {
		t.Fatalf("expected model to be quitting")
	}
}

func TestDisplayDropsOutputBeforeAttach(t *testing.T) {
	display := NewDisplay()

	display.ShowText(1, "lost")
	display.ShowStatus("lost")
	display.ShowEnergy(0.5)
	display.ShowImage(1, []byte("png"))
}

func TestStartupStatusGivesWayToHint(t *testing.T) {
	m := sized(t, NewModel(&triggerStub{}, WithHint("Press space"), WithStatus("Loading model...")))
	if m.status != "Loading model..." || !strings.Contains(m.View(), "Loading model...") {
		t.Fatalf("expected startup status, got %q", m.status)
	}

	m = update(t, m, StatusMsg(""))
	if m.status != "Press space" {
		t.Fatalf("expected hint once loaded, got %q", m.status)
	}
}
