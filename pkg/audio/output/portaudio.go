//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using a PortAudio callback stream
package output

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// PortAudio output implementation
type PortAudio struct {
	stream     *portaudio.Stream
	sampleRate int
	log        logrus.FieldLogger
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio(opts ...Option) Output {
	o := buildOptions(opts)
	return &PortAudio{log: o.log}
}

// Open initializes PortAudio and starts a callback stream reading from src
func (p *PortAudio) Open(sampleRate, channels int, src Source) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	rate := audio.SampleRateOrDefault(sampleRate)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(rate), 0, func(out []float32) {
		src.Read(out)
	})
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("failed to start stream: %w", err)
	}

	p.stream = stream
	p.sampleRate = rate
	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		p.sampleRate = int(info.SampleRate)
	}

	p.log.Infof("Audio output initialized: %dHz, %d channels (portaudio)", p.sampleRate, channels)

	return nil
}

// SampleRate returns the stream sample rate
func (p *PortAudio) SampleRate() int {
	return p.sampleRate
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
