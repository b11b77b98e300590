// ABOUTME: Audio input interface definition
// ABOUTME: Common interface and backend selection for mono capture
package input

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Backend names accepted by New
const (
	BackendMalgo     = "malgo"
	BackendPortAudio = "portaudio"
	BackendTone      = "tone"
)

var (
	// ErrNotOpen is returned when querying a closed input
	ErrNotOpen = errors.New("input not initialized")

	// ErrUnsupportedBackend is returned by New for unknown backend names
	ErrUnsupportedBackend = errors.New("unsupported input backend")
)

// Input represents a mono capture device
type Input interface {
	// Open starts capturing. onSamples runs on the capture goroutine with a
	// slice that is only valid for the duration of the call.
	// sampleRate 0 requests the device default.
	Open(sampleRate int, onSamples func([]float32)) error

	// SampleRate returns the rate reported by the device after Open
	SampleRate() int

	// Close stops capturing and releases the device
	Close() error
}

// Option configures a backend
type Option func(*options)

type options struct {
	log       logrus.FieldLogger
	clock     clock.WithTicker
	frequency float64
	amplitude float64
}

// WithLogger sets the logger used by the backend
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the clock driving the tone backend
func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithTone sets the frequency and amplitude of the tone backend
func WithTone(frequency, amplitude float64) Option {
	return func(o *options) {
		o.frequency = frequency
		o.amplitude = amplitude
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:       logrus.StandardLogger().WithField("component", "input"),
		clock:     clock.RealClock{},
		frequency: DefaultToneFrequency,
		amplitude: DefaultToneAmplitude,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates an input for the named backend
func New(backend string, opts ...Option) (Input, error) {
	switch backend {
	case BackendMalgo, "":
		return NewMalgo(opts...), nil
	case BackendPortAudio:
		return NewPortAudio(opts...), nil
	case BackendTone:
		return NewTone(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}
