// ABOUTME: Live pitch detector over an audio input
// ABOUTME: Analyses fixed-size frames on the capture goroutine and publishes readings
package tuner

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
	"github.com/fretcoach/fretcoach/pkg/audio/input"
)

// DefaultFrameSize is the analysis frame length in samples
const DefaultFrameSize = 2048

type detection struct {
	reading Reading
	ok      bool
}

// Detector runs YIN on every frame captured from an Input. The latest
// result replaces the previous one; a frame with no pitch clears it.
type Detector struct {
	mu            sync.Mutex
	in            input.Input
	frameSize     int
	hop           int
	threshold     float64
	requestedRate int
	log           logrus.FieldLogger
	onReading     func(Reading, bool)

	active     atomic.Bool
	session    atomic.Uint64
	sampleRate atomic.Int64
	latest     atomic.Pointer[detection]
}

// DetectorOption customizes a Detector
type DetectorOption func(*Detector)

// WithFrameSize sets the analysis frame length
func WithFrameSize(n int) DetectorOption {
	return func(d *Detector) {
		if n >= 8 {
			d.frameSize = n
		}
	}
}

// WithHop sets how many new samples trigger an analysis. The default equals
// the frame size, so frames do not overlap.
func WithHop(n int) DetectorOption {
	return func(d *Detector) { d.hop = n }
}

// WithThreshold sets the YIN absolute threshold
func WithThreshold(th float64) DetectorOption {
	return func(d *Detector) {
		if th > 0 && th < 1 {
			d.threshold = th
		}
	}
}

// WithSampleRate requests a capture rate (0 = device default)
func WithSampleRate(rate int) DetectorOption {
	return func(d *Detector) { d.requestedRate = rate }
}

// WithReadingHandler registers a callback for every analysed frame. It runs
// on the capture goroutine and must not block.
func WithReadingHandler(fn func(Reading, bool)) DetectorOption {
	return func(d *Detector) { d.onReading = fn }
}

// WithLogger sets the detector logger
func WithLogger(l logrus.FieldLogger) DetectorOption {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDetector creates an inactive detector reading from in
func NewDetector(in input.Input, opts ...DetectorOption) *Detector {
	d := &Detector{
		in:        in,
		frameSize: DefaultFrameSize,
		threshold: DefaultThreshold,
		log:       logrus.StandardLogger().WithField("component", "tuner"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start opens the input. Starting an active detector does nothing. If the
// device cannot be opened the detector stays inactive.
func (d *Detector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active.Load() {
		return nil
	}

	session := d.session.Add(1)
	d.sampleRate.Store(int64(audio.SampleRateOrDefault(d.requestedRate)))
	d.latest.Store(nil)

	assembler := input.NewFrameAssembler(d.frameSize, d.hop, func(frame []float64) {
		d.process(frame, session)
	})

	err := d.in.Open(d.requestedRate, func(samples []float32) {
		if d.session.Load() != session {
			return
		}
		assembler.Write(samples)
	})
	if err != nil {
		d.session.Add(1)
		d.log.Errorf("Failed to open tuner input: %v", err)
		return fmt.Errorf("tuner input: %w", err)
	}

	if rate := d.in.SampleRate(); rate > 0 {
		d.sampleRate.Store(int64(rate))
	}
	d.active.Store(true)

	d.log.WithFields(logrus.Fields{
		"sample_rate": d.SampleRate(),
		"frame_size":  d.frameSize,
		"threshold":   d.threshold,
	}).Info("Tuner started")

	return nil
}

// Stop closes the input and clears the latest reading. Frames already being
// analysed finish but their results are dropped.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active.Load() {
		return
	}

	d.session.Add(1)
	d.active.Store(false)
	if err := d.in.Close(); err != nil {
		d.log.Warnf("Tuner input close error: %v", err)
	}
	d.latest.Store(nil)

	d.log.Info("Tuner stopped")
}

// IsActive reports whether the detector is capturing
func (d *Detector) IsActive() bool {
	return d.active.Load()
}

// Latest returns the most recent reading, or false when nothing is detected
func (d *Detector) Latest() (Reading, bool) {
	det := d.latest.Load()
	if det == nil {
		return Reading{}, false
	}
	return det.reading, det.ok
}

// SampleRate returns the capture rate in use
func (d *Detector) SampleRate() int {
	return int(d.sampleRate.Load())
}

// process analyses one frame on the capture goroutine
func (d *Detector) process(frame []float64, session uint64) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("Pitch analysis panicked: %v", r)
		}
	}()

	reading, ok := Analyze(frame, d.SampleRate(), d.threshold)
	if d.session.Load() != session {
		return
	}

	d.latest.Store(&detection{reading: reading, ok: ok})
	if d.onReading != nil {
		d.onReading(reading, ok)
	}
}
