// ABOUTME: Bubbletea model for the practice TUI
// ABOUTME: Polls application status and maps keys to controls
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/utils/clock"

	"github.com/fretcoach/fretcoach/internal/app"
	"github.com/fretcoach/fretcoach/internal/version"
)

// PollInterval is how often the model refreshes its status snapshot
const PollInterval = 30 * time.Millisecond

// Controller is the part of the application the TUI drives
type Controller interface {
	Status() app.Status
	ToggleMetronome() error
	AdjustBPM(delta int) error
	CycleSubdivisions() error
	AdjustSwing(delta float64) error
	ToggleAccent() error
	ToggleDropout()
	ToggleTuner() error
	PlayStepCompletion() error
	PlaySessionEnd() error
}

type tickMsg time.Time

// Model represents the TUI state
type Model struct {
	ctrl  Controller
	clock clock.PassiveClock

	status    app.Status
	lastBeats uint64
	flashAt   time.Time
	downbeat  bool

	lastErr  string
	quitting bool

	// Dimensions
	width  int
	height int
}

// NewModel creates a model polling ctrl
func NewModel(ctrl Controller, clk clock.PassiveClock) Model {
	if clk == nil {
		clk = clock.RealClock{}
	}
	m := Model{ctrl: ctrl, clock: clk}
	if ctrl != nil {
		m.status = ctrl.Status()
		m.lastBeats = m.status.Beats
	}
	return m
}

// Init starts the poll loop
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	}

	return m, nil
}

// refresh pulls a new snapshot and starts a flash on every new sub-beat
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.status = m.ctrl.Status()
	if m.status.Beats != m.lastBeats {
		m.lastBeats = m.status.Beats
		m.flashAt = m.clock.Now()
		m.downbeat = m.status.Metronome.SubBeat == 0
	}
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil {
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	var err error
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		err = m.ctrl.ToggleMetronome()
	case "up":
		err = m.ctrl.AdjustBPM(1)
	case "down":
		err = m.ctrl.AdjustBPM(-1)
	case "right":
		err = m.ctrl.AdjustBPM(5)
	case "left":
		err = m.ctrl.AdjustBPM(-5)
	case "s":
		err = m.ctrl.CycleSubdivisions()
	case "w":
		err = m.ctrl.AdjustSwing(app.SwingStep)
	case "W":
		err = m.ctrl.AdjustSwing(-app.SwingStep)
	case "a":
		err = m.ctrl.ToggleAccent()
	case "d":
		m.ctrl.ToggleDropout()
	case "t":
		err = m.ctrl.ToggleTuner()
	case "c":
		err = m.ctrl.PlayStepCompletion()
	case "e":
		err = m.ctrl.PlaySessionEnd()
	default:
		return m, nil
	}

	m.lastErr = ""
	if err != nil {
		m.lastErr = err.Error()
	}
	m.refresh()
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", version.Product, version.Version)))
	b.WriteString("\n\n")
	b.WriteString(m.renderMetronome())
	b.WriteString("\n\n")
	b.WriteString(m.renderTuner())
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelp())

	return appStyle.Render(b.String())
}

// renderMetronome renders beat dots, counters and settings
func (m Model) renderMetronome() string {
	st := m.status.Metronome
	cfg := m.status.Config
	ts := cfg.TimeSignature()

	state := dimStyle.Render("stopped")
	if st.Playing {
		state = playingStyle.Render("playing")
	}

	var dots []string
	for beat := 1; beat <= ts.BeatsPerMeasure; beat++ {
		dot := "○"
		style := dimStyle
		if st.Playing && beat == st.MainBeat {
			dot = "●"
			style = dotStyle(m.flashLevel(), m.downbeat)
		}
		dots = append(dots, style.Render(dot))
	}

	dropout := dimStyle.Render("off")
	if m.status.Dropout.Enabled {
		dropout = fmt.Sprintf("%d on / %d off", m.status.Dropout.PlayMeasures, m.status.Dropout.MuteMeasures)
		if st.InDropout {
			dropout += " " + mutedStyle.Render("[silent]")
		}
	}

	accent := "on"
	if !cfg.AccentDownbeat() {
		accent = "off"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", labelStyle.Render("Metronome"), state)
	fmt.Fprintf(&b, "  %s   %s %d\n\n", strings.Join(dots, " "), labelStyle.Render("Measure"), st.Measure)
	fmt.Fprintf(&b, "  %s %d   %s %d/%d   %s %s   %s %.2f   %s %s\n",
		labelStyle.Render("BPM"), cfg.BPM(),
		labelStyle.Render("Meter"), ts.BeatsPerMeasure, ts.BeatUnit,
		labelStyle.Render("Subdiv"), subdivisionName(cfg.Subdivisions()),
		labelStyle.Render("Swing"), cfg.Swing(),
		labelStyle.Render("Accent"), accent)
	fmt.Fprintf(&b, "  %s %s", labelStyle.Render("Dropout"), dropout)

	return b.String()
}

// renderTuner renders the detected note and a cents meter
func (m Model) renderTuner() string {
	if !m.status.TunerActive {
		return fmt.Sprintf("%s  %s", labelStyle.Render("Tuner"), dimStyle.Render("off"))
	}
	if !m.status.HasReading {
		return fmt.Sprintf("%s  %s\n  %s", labelStyle.Render("Tuner"), dimStyle.Render("listening..."), renderMeter(0, false))
	}

	r := m.status.Reading
	note := noteStyle(r.Cents).Render(fmt.Sprintf("%s%d", r.Note, r.Octave))
	return fmt.Sprintf("%s  %s  %+.1f cents  %.2f Hz\n  %s",
		labelStyle.Render("Tuner"), note, r.Cents, r.Frequency, renderMeter(r.Cents, true))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("space:Start/Stop  ↑/↓:±1 BPM  ←/→:±5 BPM  s:Subdiv  w/W:Swing  a:Accent\n" +
		"d:Dropout  t:Tuner  c:Step chime  e:End chime  q:Quit")
}

// flashLevel is 1 right after a click and decays to 0
func (m Model) flashLevel() float64 {
	if m.flashAt.IsZero() {
		return 0
	}
	return flashIntensity(m.clock.Since(m.flashAt))
}

func subdivisionName(n int) string {
	switch n {
	case 1:
		return "quarter"
	case 2:
		return "eighth"
	case 3:
		return "triplet"
	case 4:
		return "sixteenth"
	default:
		return fmt.Sprintf("%d/beat", n)
	}
}
