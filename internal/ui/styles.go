// ABOUTME: Lipgloss styles and colour helpers for the TUI
// ABOUTME: Beat flash easing and tuner meter colouring
package ui

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fogleman/ease"
	"github.com/lucasb-eyer/go-colorful"
)

// FlashDuration is how long a beat dot stays lit
const FlashDuration = 180 * time.Millisecond

// MeterWidth is the number of cells in the cents meter
const MeterWidth = 41

var (
	appStyle     = lipgloss.NewStyle().Margin(1, 2, 0, 2)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	playingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)

	idleColor     = colorful.Color{R: 0.35, G: 0.35, B: 0.4}
	beatColor     = colorful.Color{R: 0.3, G: 0.85, B: 1}
	downbeatColor = colorful.Color{R: 1, G: 0.55, B: 0.1}
	inTuneColor   = colorful.Color{R: 0.2, G: 0.9, B: 0.3}
	outTuneColor  = colorful.Color{R: 0.95, G: 0.2, B: 0.2}
)

// flashIntensity eases from 1 at the click to 0 after FlashDuration
func flashIntensity(elapsed time.Duration) float64 {
	if elapsed < 0 {
		return 1
	}
	t := float64(elapsed) / float64(FlashDuration)
	if t >= 1 {
		return 0
	}
	return 1 - ease.OutQuad(t)
}

func dotStyle(level float64, downbeat bool) lipgloss.Style {
	target := beatColor
	if downbeat {
		target = downbeatColor
	}
	c := idleColor.BlendLab(target, math.Max(level, 0.35)).Clamped()
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Hex()))
}

// tuneColor moves from green at 0 cents to red at 50
func tuneColor(cents float64) colorful.Color {
	t := math.Min(math.Abs(cents)/50, 1)
	return inTuneColor.BlendLab(outTuneColor, t).Clamped()
}

func noteStyle(cents float64) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(tuneColor(cents).Hex()))
}

// meterPosition maps [-50, 50] cents to a cell index
func meterPosition(cents float64) int {
	half := MeterWidth / 2
	pos := half + int(math.Round(cents/50*float64(half)))
	return min(max(pos, 0), MeterWidth-1)
}

// renderMeter draws a centre-marked bar with a needle at cents
func renderMeter(cents float64, needle bool) string {
	cells := make([]string, MeterWidth)
	for i := range cells {
		cells[i] = "─"
	}
	cells[MeterWidth/2] = "┼"

	if needle {
		pos := meterPosition(cents)
		cells[pos] = noteStyle(cents).Render("▲")
	}

	return "-50 " + strings.Join(cells, "") + " +50"
}
