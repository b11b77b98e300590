// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests key bindings, status polling and rendering helpers
package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/fretcoach/fretcoach/internal/app"
	"github.com/fretcoach/fretcoach/pkg/metronome"
	"github.com/fretcoach/fretcoach/pkg/tuner"
)

type fakeController struct {
	status  app.Status
	calls   []string
	bpm     int
	swing   float64
	toggErr error
}

func newFakeController() *fakeController {
	return &fakeController{status: app.Status{Config: metronome.DefaultConfig()}}
}

func (f *fakeController) Status() app.Status { return f.status }
func (f *fakeController) ToggleMetronome() error {
	f.calls = append(f.calls, "metronome")
	return f.toggErr
}
func (f *fakeController) AdjustBPM(delta int) error {
	f.calls = append(f.calls, "bpm")
	f.bpm += delta
	return nil
}
func (f *fakeController) CycleSubdivisions() error {
	f.calls = append(f.calls, "subdivisions")
	return nil
}
func (f *fakeController) AdjustSwing(delta float64) error {
	f.calls = append(f.calls, "swing")
	f.swing += delta
	return nil
}
func (f *fakeController) ToggleAccent() error {
	f.calls = append(f.calls, "accent")
	return nil
}
func (f *fakeController) ToggleDropout() { f.calls = append(f.calls, "dropout") }
func (f *fakeController) ToggleTuner() error {
	f.calls = append(f.calls, "tuner")
	return nil
}
func (f *fakeController) PlayStepCompletion() error {
	f.calls = append(f.calls, "step")
	return nil
}
func (f *fakeController) PlaySessionEnd() error {
	f.calls = append(f.calls, "end")
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestKeyBindings(t *testing.T) {
	ctrl := newFakeController()
	m := NewModel(ctrl, testingclock.NewFakeClock(time.Unix(0, 0)))

	press(m, " ", "up", "up", "down", "right", "left", "left", "s", "w", "W", "a", "d", "t", "c", "e", "x")

	assert.Equal(t, []string{
		"metronome", "bpm", "bpm", "bpm", "bpm", "bpm", "bpm",
		"subdivisions", "swing", "swing", "accent", "dropout", "tuner", "step", "end",
	}, ctrl.calls)
	assert.Equal(t, 1+1-1+5-5-5, ctrl.bpm)
	assert.InDelta(t, 0, ctrl.swing, 1e-9)
}

func TestQuit(t *testing.T) {
	m := NewModel(newFakeController(), nil)
	next, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).quitting)
	assert.Equal(t, "", next.(Model).View())
}

func TestControlErrorShown(t *testing.T) {
	ctrl := newFakeController()
	ctrl.toggErr = errors.New("device busy")
	m := press(NewModel(ctrl, nil), " ")
	assert.Equal(t, "device busy", m.lastErr)
	assert.Contains(t, m.View(), "device busy")

	// the next successful action clears it
	m = press(m, "up")
	assert.Empty(t, m.lastErr)
}

func TestTickStartsFlashOnNewBeat(t *testing.T) {
	ctrl := newFakeController()
	fc := testingclock.NewFakeClock(time.Unix(100, 0))
	m := NewModel(ctrl, fc)
	assert.Equal(t, 0.0, m.flashLevel())

	ctrl.status.Beats = 1
	ctrl.status.Metronome = metronome.State{Playing: true, Beat: 1, MainBeat: 1, Measure: 1}
	next, cmd := m.Update(tickMsg(fc.Now()))
	require.NotNil(t, cmd)
	m = next.(Model)

	assert.True(t, m.downbeat)
	assert.Equal(t, 1.0, m.flashLevel())

	fc.Step(FlashDuration / 2)
	level := m.flashLevel()
	assert.Greater(t, level, 0.0)
	assert.Less(t, level, 1.0)

	fc.Step(FlashDuration)
	assert.Equal(t, 0.0, m.flashLevel())

	// same beat count does not re-trigger
	next, _ = m.Update(tickMsg(fc.Now()))
	assert.Equal(t, 0.0, next.(Model).flashLevel())
}

func TestViewRendersStatus(t *testing.T) {
	ctrl := newFakeController()
	ctrl.status.Config = metronome.NewConfig(96, metronome.WithTimeSignature(metronome.ThreeFour), metronome.WithSubdivisions(3))
	ctrl.status.Metronome = metronome.State{Playing: true, Beat: 5, MainBeat: 2, SubBeat: 4, Measure: 7, InDropout: true}
	ctrl.status.Dropout = metronome.NewDropoutConfig(true, 4, 2)
	ctrl.status.TunerActive = true
	ctrl.status.HasReading = true
	ctrl.status.Reading = tuner.FrequencyToNote(445)

	view := NewModel(ctrl, nil).View()
	for _, want := range []string{"playing", "Measure", "7", "96", "3/4", "triplet", "4 on / 2 off", "[silent]", "A4", "+19.6 cents"} {
		assert.Contains(t, view, want)
	}
	assert.Equal(t, 3, strings.Count(view, "○")+strings.Count(view, "●"))
	assert.Equal(t, 1, strings.Count(view, "●"))
}

func TestViewTunerStates(t *testing.T) {
	ctrl := newFakeController()
	view := NewModel(ctrl, nil).View()
	assert.NotContains(t, view, "listening")
	assert.NotContains(t, view, "┼")

	ctrl.status.TunerActive = true
	view = NewModel(ctrl, nil).View()
	assert.Contains(t, view, "listening")
	assert.Contains(t, view, "┼")
	assert.NotContains(t, view, "▲")
}

func TestFlashIntensity(t *testing.T) {
	assert.Equal(t, 1.0, flashIntensity(0))
	assert.Equal(t, 1.0, flashIntensity(-time.Millisecond))
	assert.Equal(t, 0.0, flashIntensity(FlashDuration))
	assert.InDelta(t, 0.25, flashIntensity(FlashDuration/2), 1e-9)
}

func TestMeterPosition(t *testing.T) {
	assert.Equal(t, MeterWidth/2, meterPosition(0))
	assert.Equal(t, 0, meterPosition(-50))
	assert.Equal(t, MeterWidth-1, meterPosition(50))
	assert.Equal(t, MeterWidth-1, meterPosition(80))
	assert.Equal(t, 30, meterPosition(25))
}

func TestTuneColor(t *testing.T) {
	assert.InDelta(t, 0, tuneColor(0).DistanceLab(inTuneColor), 1e-3)
	assert.InDelta(t, 0, tuneColor(-60).DistanceLab(outTuneColor), 1e-3)
	assert.Greater(t, tuneColor(10).DistanceLab(inTuneColor), 0.0)
}

func TestRenderMeter(t *testing.T) {
	m := renderMeter(0, false)
	assert.True(t, strings.HasPrefix(m, "-50 "))
	assert.True(t, strings.HasSuffix(m, " +50"))
	assert.Contains(t, m, "┼")
	assert.Contains(t, renderMeter(10, true), "▲")
}
