//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(opts ...Option) Output {
	return &PortAudio{}
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(sampleRate, channels int, src Source) error {
	return errPortAudioDisabled
}

// SampleRate returns 0; the stub never opens
func (p *PortAudio) SampleRate() int {
	return 0
}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
