// ABOUTME: Audio output interface definition
// ABOUTME: Common interface and backend selection for audio playback
package output

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Backend names accepted by New
const (
	BackendMalgo     = "malgo"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendNull      = "null"
)

var (
	// ErrNotOpen is returned when scheduling on a stream whose device is not open
	ErrNotOpen = errors.New("output not initialized")

	// ErrUnsupportedBackend is returned by New for unknown backend names
	ErrUnsupportedBackend = errors.New("unsupported output backend")
)

// Source supplies interleaved samples to a device callback
type Source interface {
	// Read fills dst completely (zero-filling when nothing is queued) and
	// returns the number of real samples written
	Read(dst []float32) int
}

// Output represents an audio output device
type Output interface {
	// Open initializes the device and starts pulling samples from src.
	// sampleRate 0 requests the device default.
	Open(sampleRate, channels int, src Source) error

	// SampleRate returns the rate reported by the device after Open
	SampleRate() int

	// Close releases output resources
	Close() error
}

// Option configures a backend
type Option func(*options)

type options struct {
	log   logrus.FieldLogger
	clock clock.WithTicker
}

// WithLogger sets the logger used by the backend
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the clock driving the null backend
func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:   logrus.StandardLogger().WithField("component", "output"),
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates an output for the named backend
func New(backend string, opts ...Option) (Output, error) {
	switch backend {
	case BackendMalgo, "":
		return NewMalgo(opts...), nil
	case BackendOto:
		return NewOto(opts...), nil
	case BackendPortAudio:
		return NewPortAudio(opts...), nil
	case BackendNull:
		return NewNull(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, backend)
	}
}
