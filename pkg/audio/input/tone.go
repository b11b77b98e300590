// ABOUTME: Synthetic sine input for headless runs and tests
// ABOUTME: Delivers one period of a test tone per clock tick
package input

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

const (
	// DefaultToneFrequency is A4
	DefaultToneFrequency = 440.0

	// DefaultToneAmplitude is 50% volume
	DefaultToneAmplitude = 0.5

	// TonePeriod is the simulated capture callback period
	TonePeriod = 10 * time.Millisecond
)

// Tone generates a sine wave in place of a microphone
type Tone struct {
	mu         sync.Mutex
	clock      clock.WithTicker
	frequency  atomic.Uint64 // float64 bits
	amplitude  float64
	sampleRate atomic.Int64
	stop       chan struct{}
	done       chan struct{}
	log        logrus.FieldLogger
}

// NewTone creates a tone input; see WithTone and WithClock
func NewTone(opts ...Option) Input {
	o := buildOptions(opts)
	t := &Tone{
		clock:     o.clock,
		amplitude: o.amplitude,
		log:       o.log,
	}
	t.SetFrequency(o.frequency)
	return t
}

// SetFrequency changes the generated pitch; it may be called while open
func (t *Tone) SetFrequency(hz float64) {
	t.frequency.Store(math.Float64bits(hz))
}

// Frequency returns the generated pitch
func (t *Tone) Frequency() float64 {
	return math.Float64frombits(t.frequency.Load())
}

// Open starts the generator loop
func (t *Tone) Open(sampleRate int, onSamples func([]float32)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	rate := audio.SampleRateOrDefault(sampleRate)
	t.sampleRate.Store(int64(rate))
	period := make([]float32, rate*int(TonePeriod)/int(time.Second))

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	ticker := t.clock.NewTicker(TonePeriod)

	go func(stop, done chan struct{}) {
		defer close(done)
		defer ticker.Stop()

		var sampleIndex uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				t.fill(period, sampleIndex, rate)
				sampleIndex += uint64(len(period))
				onSamples(period)
			}
		}
	}(t.stop, t.done)

	t.log.Infof("Audio input initialized: %dHz, mono (tone %.2fHz)", rate, t.Frequency())

	return nil
}

func (t *Tone) fill(dst []float32, start uint64, rate int) {
	freq := t.Frequency()
	for i := range dst {
		tm := float64(start+uint64(i)) / float64(rate)
		dst[i] = float32(t.amplitude * math.Sin(2*math.Pi*freq*tm))
	}
}

// SampleRate returns the simulated device rate
func (t *Tone) SampleRate() int {
	return int(t.sampleRate.Load())
}

// Close stops the generator and waits for it to exit
func (t *Tone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return nil
}

func (t *Tone) stopLocked() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	<-t.done
	t.stop = nil
	t.done = nil
}
