// ABOUTME: One-shot sound effect player
// ABOUTME: Plays completion and session-end chimes on a dedicated pipeline
package sfx

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
	"github.com/fretcoach/fretcoach/pkg/audio/synth"
)

// Sink is the playback pipeline used for effects. It must not be shared
// with the metronome.
type Sink interface {
	Start() error
	Stop()
	Schedule(buf audio.Buffer, onDone func()) error
	SampleRate() int
}

// Effect names a chime
type Effect int

const (
	StepCompletion Effect = iota
	SessionEnd
)

func (e Effect) String() string {
	switch e {
	case StepCompletion:
		return "step-completion"
	case SessionEnd:
		return "session-end"
	default:
		return "unknown"
	}
}

// Player plays one effect at a time; a new request cuts off the current one
type Player struct {
	mu   sync.Mutex
	sink Sink
	log  logrus.FieldLogger

	sampleRate int
	buffers    map[Effect]audio.Buffer

	generation atomic.Uint64
	playing    atomic.Bool
}

// Option customizes a Player
type Option func(*Player)

// WithLogger sets the player logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPlayer creates a player on sink. Nothing is opened until the first play.
func NewPlayer(sink Sink, opts ...Option) *Player {
	p := &Player{
		sink: sink,
		log:  logrus.StandardLogger().WithField("component", "sfx"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PlayStepCompletion plays the two-note completion chime
func (p *Player) PlayStepCompletion() error {
	return p.Play(StepCompletion)
}

// PlaySessionEnd plays the major-triad session-end chime
func (p *Player) PlaySessionEnd() error {
	return p.Play(SessionEnd)
}

// Play stops whatever is sounding and plays e
func (p *Player) Play(e Effect) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.sink.Start(); err != nil {
		p.log.Errorf("Failed to start sound effect output: %v", err)
		return fmt.Errorf("sound effect output: %w", err)
	}

	p.sink.Stop()
	gen := p.generation.Add(1)

	buf, err := p.buffer(e)
	if err != nil {
		p.playing.Store(false)
		return err
	}

	p.playing.Store(true)
	err = p.sink.Schedule(buf, func() {
		if p.generation.Load() == gen {
			p.playing.Store(false)
		}
	})
	if err != nil {
		p.playing.Store(false)
		return fmt.Errorf("schedule %s: %w", e, err)
	}

	p.log.WithField("effect", e.String()).Debug("Playing sound effect")
	return nil
}

// IsPlaying reports whether an effect is still sounding
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// Stop silences the current effect
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation.Add(1)
	p.sink.Stop()
	p.playing.Store(false)
}

// Close stops playback and closes the sink if it can be closed
func (p *Player) Close() error {
	p.Stop()
	if c, ok := p.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// buffer renders effects for the sink's rate, once per rate (must hold p.mu)
func (p *Player) buffer(e Effect) (audio.Buffer, error) {
	rate := audio.SampleRateOrDefault(p.sink.SampleRate())
	if rate != p.sampleRate || p.buffers == nil {
		p.sampleRate = rate
		p.buffers = map[Effect]audio.Buffer{
			StepCompletion: synth.CompletionChime(rate),
			SessionEnd:     synth.SessionEndChime(rate),
		}
	}

	buf, ok := p.buffers[e]
	if !ok {
		return audio.Buffer{}, fmt.Errorf("unknown sound effect %d", int(e))
	}
	return buf, nil
}
