// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams a Source through an oto player using float32 samples
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// oto allows only one context per process; every Oto output shares it and
// gets its own player, so pipelines stay independent.
var (
	otoOnce     sync.Once
	otoCtx      *oto.Context
	otoErr      error
	otoRate     int
	otoChannels int
)

func sharedOtoContext(sampleRate, channels int) (*oto.Context, int, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   audio.SampleRateOrDefault(sampleRate),
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan

		otoCtx = ctx
		otoRate = op.SampleRate
		otoChannels = channels
	})

	if otoErr != nil {
		return nil, 0, otoErr
	}
	if channels != otoChannels {
		return nil, 0, fmt.Errorf("oto context has %d channels, requested %d", otoChannels, channels)
	}
	return otoCtx, otoRate, nil
}

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	player     *oto.Player
	sampleRate atomic.Int64
	log        logrus.FieldLogger
}

// NewOto creates a new Oto output
func NewOto(opts ...Option) Output {
	o := buildOptions(opts)
	return &Oto{log: o.log}
}

// Open attaches a new player reading from src to the shared context
func (o *Oto) Open(sampleRate, channels int, src Source) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx, rate, err := sharedOtoContext(sampleRate, channels)
	if err != nil {
		return err
	}

	if sampleRate > 0 && rate != sampleRate {
		o.log.Warnf("Oto context already running at %dHz, ignoring requested %dHz", rate, sampleRate)
	}

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			o.log.Warnf("Closing previous oto player: %v", err)
		}
	}

	o.player = ctx.NewPlayer(NewReader(src))
	o.player.Play()
	o.sampleRate.Store(int64(rate))

	o.log.Infof("Audio output initialized: %dHz, %d channels (oto)", rate, channels)

	return nil
}

// SampleRate returns the shared context sample rate
func (o *Oto) SampleRate() int {
	return int(o.sampleRate.Load())
}

// Close releases the player; the shared context stays alive
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
