//go:build !portaudio

// ABOUTME: PortAudio capture stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package input

import (
	"errors"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio input implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio input
func NewPortAudio(opts ...Option) Input {
	return &PortAudio{}
}

// Open always fails without the portaudio build tag
func (p *PortAudio) Open(sampleRate int, onSamples func([]float32)) error {
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
