// ABOUTME: Sample-accurate beat scheduler
// ABOUTME: Chains one sub-beat buffer per completion, guarded by a generation counter
package metronome

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
	"github.com/fretcoach/fretcoach/pkg/audio/synth"
)

// Sink is the playback pipeline the scheduler feeds
type Sink interface {
	// Start opens the device; failure leaves the scheduler stopped
	Start() error

	// Stop halts output immediately and drops queued buffers
	Stop()

	// Schedule queues buf; onDone runs when its last frame has been consumed
	Schedule(buf audio.Buffer, onDone func()) error

	// SampleRate is the device rate
	SampleRate() int
}

// Scheduler emits one buffer per sub-beat whose length is the sub-beat's
// duration. The completion of each buffer schedules the next one.
type Scheduler struct {
	mu   sync.Mutex
	sink Sink
	log  logrus.FieldLogger

	config  Config
	dropout DropoutConfig // active, swapped at measure boundaries
	pending DropoutConfig // latest SetDropout value

	clicks     synth.ClickSet
	sampleRate int

	playing         bool
	inDropout       bool
	measuresInPhase int

	generation atomic.Uint64
	state      atomic.Pointer[State]
	settings   atomic.Pointer[settings]
	onBeat     func(State)
}

// settings mirrors config and pending for lock-free readers
type settings struct {
	config  Config
	dropout DropoutConfig
}

// SchedulerOption customizes a Scheduler
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler logger
func WithLogger(l logrus.FieldLogger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBeatHandler registers a callback invoked with every published state.
// It runs on the audio completion goroutine and must not block.
func WithBeatHandler(fn func(State)) SchedulerOption {
	return func(s *Scheduler) { s.onBeat = fn }
}

// WithDropout sets the initial dropout configuration
func WithDropout(d DropoutConfig) SchedulerOption {
	return func(s *Scheduler) {
		s.dropout = d.normalized()
		s.pending = s.dropout
	}
}

// NewScheduler creates a stopped scheduler
func NewScheduler(sink Sink, cfg Config, opts ...SchedulerOption) *Scheduler {
	if cfg.IsZero() {
		cfg = DefaultConfig()
	}
	s := &Scheduler{
		sink:    sink,
		config:  cfg,
		log:     logrus.StandardLogger().WithField("component", "metronome"),
		dropout: NewDropoutConfig(false, 4, 2),
	}
	s.pending = s.dropout
	for _, opt := range opts {
		opt(s)
	}

	s.regenerateClicks(sink.SampleRate())
	s.publishSettingsLocked()
	s.publish(idleState(0))

	return s
}

// Start begins playback at beat 1 of measure 1. A running scheduler is
// stopped first. If the sink cannot start, the error is returned and the
// scheduler stays stopped.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked()
}

func (s *Scheduler) startLocked() error {
	if s.playing {
		s.stopLocked()
	}

	if err := s.sink.Start(); err != nil {
		s.log.Errorf("Failed to start metronome output: %v", err)
		return fmt.Errorf("metronome output: %w", err)
	}

	s.regenerateClicks(s.sink.SampleRate())

	gen := s.generation.Add(1)
	s.playing = true
	s.inDropout = false
	s.measuresInPhase = 0

	s.log.WithFields(logrus.Fields{
		"bpm":          s.config.BPM(),
		"meter":        fmt.Sprintf("%d/%d", s.config.TimeSignature().BeatsPerMeasure, s.config.TimeSignature().BeatUnit),
		"subdivisions": s.config.Subdivisions(),
		"swing":        s.config.Swing(),
		"generation":   gen,
	}).Info("Metronome started")

	s.scheduleLocked(0, 1, gen)
	return nil
}

// Stop halts playback immediately. Stopping a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing {
		return
	}
	s.stopLocked()
	s.log.WithField("generation", s.generation.Load()).Info("Metronome stopped")
}

func (s *Scheduler) stopLocked() {
	s.playing = false
	gen := s.generation.Add(1)
	s.sink.Stop()
	s.inDropout = false
	s.measuresInPhase = 0
	s.publish(idleState(gen))
}

// UpdateConfig replaces the configuration. A playing scheduler restarts at
// beat 1 of measure 1 with the new settings.
func (s *Scheduler) UpdateConfig(cfg Config) error {
	if cfg.IsZero() {
		cfg = DefaultConfig()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wasPlaying := s.playing
	if wasPlaying {
		s.stopLocked()
	}
	s.config = cfg
	s.publishSettingsLocked()
	s.regenerateClicks(s.sink.SampleRate())

	if wasPlaying {
		return s.startLocked()
	}
	return nil
}

// SetDropout stores a dropout configuration; it takes effect at the next
// measure boundary
func (s *Scheduler) SetDropout(d DropoutConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = d.normalized()
	s.publishSettingsLocked()
}

// Config returns the current configuration without locking
func (s *Scheduler) Config() Config {
	return s.settings.Load().config
}

// Dropout returns the most recently set dropout configuration without locking
func (s *Scheduler) Dropout() DropoutConfig {
	return s.settings.Load().dropout
}

// State returns the latest published snapshot without locking
func (s *Scheduler) State() State {
	return *s.state.Load()
}

func (s *Scheduler) IsPlaying() bool     { return s.State().Playing }
func (s *Scheduler) CurrentBeat() int    { return s.State().Beat }
func (s *Scheduler) CurrentMeasure() int { return s.State().Measure }
func (s *Scheduler) IsInDropout() bool   { return s.State().InDropout }

// Generation returns the current epoch
func (s *Scheduler) Generation() uint64 {
	return s.generation.Load()
}

// scheduleLocked builds and queues sub-beat beatInMeasure of measure (must hold s.mu)
func (s *Scheduler) scheduleLocked(beatInMeasure, measure int, gen uint64) {
	if !s.playing || gen != s.generation.Load() {
		return
	}

	if beatInMeasure == 0 {
		s.advanceDropoutLocked()
	}

	kind := s.config.ClickFor(beatInMeasure)
	buf := s.buildBuffer(beatInMeasure, kind)

	state := State{
		Playing:    true,
		Beat:       beatInMeasure + 1,
		MainBeat:   beatInMeasure/s.config.Subdivisions() + 1,
		SubBeat:    beatInMeasure,
		Measure:    measure,
		InDropout:  s.inDropout,
		Click:      kind,
		Generation: gen,
	}

	nextBeat := beatInMeasure + 1
	nextMeasure := measure
	if nextBeat >= s.config.SubBeatsPerMeasure() {
		nextBeat = 0
		nextMeasure++
	}

	s.publish(state)

	err := s.sink.Schedule(buf, func() {
		s.complete(nextBeat, nextMeasure, gen)
	})
	if err != nil {
		s.log.Errorf("Failed to schedule beat buffer: %v", err)
		s.stopLocked()
	}
}

// complete is the buffer completion handler. Stale generations are ignored.
func (s *Scheduler) complete(beatInMeasure, measure int, gen uint64) {
	if gen != s.generation.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(beatInMeasure, measure, gen)
}

// advanceDropoutLocked runs at the start of every measure
func (s *Scheduler) advanceDropoutLocked() {
	if s.pending != s.dropout {
		s.dropout = s.pending
		if !s.dropout.Enabled {
			s.inDropout = false
			s.measuresInPhase = 0
		}
	}

	if !s.dropout.Enabled {
		return
	}

	s.measuresInPhase++
	switch {
	case s.inDropout && s.measuresInPhase > s.dropout.MuteMeasures:
		s.inDropout = false
		s.measuresInPhase = 1
	case !s.inDropout && s.measuresInPhase > s.dropout.PlayMeasures:
		s.inDropout = true
		s.measuresInPhase = 1
	}
}

// buildBuffer renders one sub-beat: the click followed by silence, or
// silence only while muted
func (s *Scheduler) buildBuffer(beatInMeasure int, kind ClickKind) audio.Buffer {
	format := audio.Format{SampleRate: s.sampleRate, Channels: audio.DefaultChannels}
	buf := audio.NewBuffer(s.config.SubBeatFrames(beatInMeasure, s.sampleRate), format)

	if s.inDropout {
		return buf
	}

	click := s.clickBuffer(kind)
	buf.CopyFrames(click, click.Frames())
	return buf
}

func (s *Scheduler) clickBuffer(kind ClickKind) audio.Buffer {
	switch kind {
	case ClickDownbeat:
		return s.clicks.Downbeat
	case ClickSubdivision:
		return s.clicks.Subdivision
	default:
		return s.clicks.Normal
	}
}

func (s *Scheduler) regenerateClicks(sampleRate int) {
	sampleRate = audio.SampleRateOrDefault(sampleRate)
	if sampleRate == s.clicks.SampleRate {
		return
	}
	s.sampleRate = sampleRate
	s.clicks = synth.NewClickSet(sampleRate)
}

func (s *Scheduler) publishSettingsLocked() {
	s.settings.Store(&settings{config: s.config, dropout: s.pending})
}

func (s *Scheduler) publish(st State) {
	s.state.Store(&st)
	if s.onBeat != nil {
		s.onBeat(st)
	}
}
