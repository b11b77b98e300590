// ABOUTME: Clock-driven output that discards audio
// ABOUTME: Drains a Source in real time for headless runs and tests
package output

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// NullPeriod is the simulated device callback period
const NullPeriod = 10 * time.Millisecond

// Null pulls one period of audio per clock tick and throws it away
type Null struct {
	mu         sync.Mutex
	clock      clock.WithTicker
	sampleRate atomic.Int64
	stop       chan struct{}
	done       chan struct{}
	log        logrus.FieldLogger
}

// NewNull creates a null output
func NewNull(opts ...Option) Output {
	o := buildOptions(opts)
	return &Null{
		clock: o.clock,
		log:   o.log,
	}
}

// Open starts the drain loop
func (n *Null) Open(sampleRate, channels int, src Source) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopLocked()

	rate := audio.SampleRateOrDefault(sampleRate)
	n.sampleRate.Store(int64(rate))
	frames := rate * int(NullPeriod) / int(time.Second)
	period := make([]float32, frames*channels)

	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	ticker := n.clock.NewTicker(NullPeriod)

	go func(stop, done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				src.Read(period)
			}
		}
	}(n.stop, n.done)

	n.log.Infof("Audio output initialized: %dHz, %d channels (null)", rate, channels)

	return nil
}

// SampleRate returns the simulated device rate
func (n *Null) SampleRate() int {
	return int(n.sampleRate.Load())
}

// Close stops the drain loop and waits for it to exit
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
	return nil
}

func (n *Null) stopLocked() {
	if n.stop == nil {
		return
	}
	close(n.stop)
	<-n.done
	n.stop = nil
	n.done = nil
}
