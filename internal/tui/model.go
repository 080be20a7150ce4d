// Package tui is the terminal front end of the storyteller: it shows the
// story as it streams in, the turn status and the microphone level, and
// turns the space key into the recording trigger.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

// Terminals do not report key releases, so the trigger is toggled.
type Trigger interface {
	ToggleTrigger()
	IsRecording() bool
}

type TextMsg struct {
	TurnID int64
	Text   string
}

type ImageMsg struct {
	TurnID int64
	Image  []byte
}

type StatusMsg string

type EnergyMsg float64

const (
	headerHeight   = 2
	footerHeight   = 4
	maxEnergyWidth = 40
)

type Model struct {
	trigger  Trigger
	hint     string
	imageDir string

	styles   styles
	viewport viewport.Model
	spinner  spinner.Model
	energy   progress.Model
	ready    bool
	width    int

	paragraphs []string
	turnID     int64
	status     string
	level      float64
	recording  bool
	quitting   bool
}

type ModelOption func(*Model)

// WithImageDir stores illustrations in dir. Without it images are only
// announced.
func WithImageDir(dir string) ModelOption {
	return func(m *Model) { m.imageDir = dir }
}

// WithStatus sets the status shown until the first status update.
func WithStatus(status string) ModelOption {
	return func(m *Model) { m.status = status }
}

// WithHint sets the status shown while nothing is happening.
func WithHint(hint string) ModelOption {
	return func(m *Model) { m.hint = hint }
}

func NewModel(trigger Trigger, opts ...ModelOption) Model {
	m := Model{
		trigger: trigger,
		styles:  newStyles(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		energy:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.status == "" {
		m.status = m.hint
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.quitting = true
			return m, tea.Quit
		case " ":
			if m.trigger != nil {
				m.trigger.ToggleTrigger()
				m.recording = m.trigger.IsRecording()
			}
			if !m.recording {
				m.level = 0
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-headerHeight-footerHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.energy.Width = min(max(msg.Width-4, 1), maxEnergyWidth)
		m.refresh()

	case TextMsg:
		m.appendText(msg.TurnID, msg.Text)
		m.refresh()

	case ImageMsg:
		m.appendText(msg.TurnID, m.saveImage(msg))
		m.refresh()

	case StatusMsg:
		m.status = string(msg)
		if m.status == "" {
			m.status = m.hint
		}
		if m.trigger != nil {
			m.recording = m.trigger.IsRecording()
		}

	case EnergyMsg:
		m.level = min(max(float64(msg), 0), 1)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// appendText starts a new paragraph for every turn.
func (m *Model) appendText(turnID int64, text string) {
	if text == "" {
		return
	}
	if turnID != m.turnID || len(m.paragraphs) == 0 {
		m.turnID = turnID
		m.paragraphs = append(m.paragraphs, strings.TrimLeft(text, " "))
		return
	}
	last := len(m.paragraphs) - 1
	m.paragraphs[last] += text
}

func (m *Model) saveImage(msg ImageMsg) string {
	if m.imageDir == "" {
		return fmt.Sprintf("[illustration: %d bytes]", len(msg.Image))
	}

	path := filepath.Join(m.imageDir, fmt.Sprintf("turn-%03d.png", msg.TurnID))
	if err := os.MkdirAll(m.imageDir, 0o755); err != nil {
		logger.Warn("failed to create image directory", "dir", m.imageDir, "error", err)
		return "[illustration could not be saved]"
	}
	if err := os.WriteFile(path, msg.Image, 0o644); err != nil {
		logger.Warn("failed to save illustration", "path", path, "error", err)
		return "[illustration could not be saved]"
	}
	return "[illustration: " + path + "]"
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	content := strings.Join(m.paragraphs, "\n\n")
	m.viewport.SetContent(m.styles.story.Render(wordwrap.String(content, m.viewport.Width)))
	m.viewport.GotoBottom()
}

func (m Model) busy() bool {
	return !m.recording && m.status != "" && m.status != m.hint
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("STORYTELLER"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")

	switch {
	case m.recording:
		b.WriteString(m.styles.recording.Render("● REC "))
		b.WriteString(m.energy.ViewAs(m.level))
	case m.busy():
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.styles.status.Render(m.status))
	default:
		b.WriteString(m.styles.status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.help.Render("space=start/stop speaking  q/esc=quit"))

	return b.String()
}
