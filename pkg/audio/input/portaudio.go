//go:build portaudio

// ABOUTME: PortAudio capture implementation
// ABOUTME: Records mono float32 through a PortAudio callback stream
package input

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// PortAudio input implementation
type PortAudio struct {
	stream     *portaudio.Stream
	sampleRate int
	log        logrus.FieldLogger
}

// NewPortAudio creates a new PortAudio input
func NewPortAudio(opts ...Option) Input {
	o := buildOptions(opts)
	return &PortAudio{log: o.log}
}

// Open initializes PortAudio and starts a mono capture stream
func (p *PortAudio) Open(sampleRate int, onSamples func([]float32)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	rate := audio.SampleRateOrDefault(sampleRate)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(rate), 0, func(in []float32) {
		onSamples(in)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open capture stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start capture stream: %w", err)
	}

	p.stream = stream
	p.sampleRate = rate
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		p.sampleRate = int(info.SampleRate)
	}

	p.log.Infof("Audio input initialized: %dHz, mono (portaudio)", p.sampleRate)

	return nil
}

// SampleRate returns the stream sample rate
func (p *PortAudio) SampleRate() int {
	return p.sampleRate
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream == nil {
		return nil
	}
	if err := p.stream.Stop(); err != nil {
		return err
	}
	if err := p.stream.Close(); err != nil {
		return err
	}
	p.stream = nil
	return portaudio.Terminate()
}
