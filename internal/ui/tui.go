// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the practice UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"k8s.io/utils/clock"
)

// Run creates the TUI program; the caller runs it
func Run(ctrl Controller) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, clock.RealClock{}), tea.WithAltScreen())
	return p, nil
}
