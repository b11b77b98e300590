// ABOUTME: Practice application orchestration
// ABOUTME: Wires metronome, tuner and sound effects to audio devices and exposes controls
package app

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/fretcoach/fretcoach/internal/config"
	"github.com/fretcoach/fretcoach/internal/version"
	"github.com/fretcoach/fretcoach/pkg/audio/input"
	"github.com/fretcoach/fretcoach/pkg/audio/output"
	"github.com/fretcoach/fretcoach/pkg/metronome"
	"github.com/fretcoach/fretcoach/pkg/sfx"
	"github.com/fretcoach/fretcoach/pkg/tuner"
)

// SwingStep is the swing change applied per key press
const SwingStep = 0.05

// App owns every engine component. The metronome and the sound effects each
// get their own output pipeline so chimes can overlap clicks.
type App struct {
	mu        sync.Mutex // serializes control changes
	cfg       config.Config
	sessionID string
	log       logrus.FieldLogger

	metronomeOut *output.Stream
	effectsOut   *output.Stream
	scheduler    *metronome.Scheduler
	detector     *tuner.Detector
	effects      *sfx.Player

	beats atomic.Uint64
}

// Option customizes an App
type Option func(*options)

type options struct {
	log   logrus.FieldLogger
	clock clock.WithTicker
}

// WithLogger sets the base logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the clock driving the null output and tone input
func WithClock(c clock.WithTicker) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// New builds the application from cfg. Devices are not opened until used.
func New(cfg config.Config, opts ...Option) (*App, error) {
	o := options{
		log:   logrus.StandardLogger(),
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	sessionID := uuid.New().String()
	log := o.log.WithField("session", sessionID)

	a := &App{
		cfg:       cfg,
		sessionID: sessionID,
		log:       log,
	}

	var err error
	a.metronomeOut, err = a.newStream(cfg, o, "metronome")
	if err != nil {
		return nil, err
	}
	a.effectsOut, err = a.newStream(cfg, o, "sfx")
	if err != nil {
		return nil, err
	}

	in, err := input.New(cfg.InputBackend,
		input.WithLogger(log.WithField("component", "input")),
		input.WithClock(o.clock),
		input.WithTone(cfg.ToneFrequency, input.DefaultToneAmplitude),
	)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	a.scheduler = metronome.NewScheduler(a.metronomeOut, cfg.Metronome(),
		metronome.WithLogger(log.WithField("component", "metronome")),
		metronome.WithDropout(cfg.Dropout()),
		metronome.WithBeatHandler(func(st metronome.State) {
			if st.Playing {
				a.beats.Add(1)
			}
		}),
	)

	a.detector = tuner.NewDetector(in,
		tuner.WithFrameSize(cfg.FrameSize),
		tuner.WithThreshold(cfg.Threshold),
		tuner.WithSampleRate(cfg.SampleRate),
		tuner.WithLogger(log.WithField("component", "tuner")),
	)

	a.effects = sfx.NewPlayer(a.effectsOut, sfx.WithLogger(log.WithField("component", "sfx")))

	log.WithFields(logrus.Fields{
		"version": version.Version,
		"output":  cfg.OutputBackend,
		"input":   cfg.InputBackend,
	}).Infof("%s initialized", version.Product)

	return a, nil
}

func (a *App) newStream(cfg config.Config, o options, pipeline string) (*output.Stream, error) {
	l := a.log.WithFields(logrus.Fields{"component": "output", "pipeline": pipeline})
	out, err := output.New(cfg.OutputBackend, output.WithLogger(l), output.WithClock(o.clock))
	if err != nil {
		return nil, fmt.Errorf("%s output: %w", pipeline, err)
	}
	return output.NewStream(out,
		output.WithSampleRate(cfg.SampleRate),
		output.WithStreamLogger(l),
	), nil
}

// SessionID identifies this process in logs
func (a *App) SessionID() string {
	return a.sessionID
}

// Start applies startup settings such as running the tuner
func (a *App) Start() error {
	if a.cfg.StartTuner {
		return a.detector.Start()
	}
	return nil
}

// ToggleMetronome starts or stops the click
func (a *App) ToggleMetronome() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.scheduler.IsPlaying() {
		a.scheduler.Stop()
		return nil
	}
	return a.scheduler.Start()
}

// AdjustBPM changes the tempo by delta
func (a *App) AdjustBPM(delta int) error {
	return a.updateConfig(func(c metronome.Config) metronome.Config {
		return c.WithBPM(c.BPM() + delta)
	})
}

// CycleSubdivisions steps through 1, 2, 3 and 4 clicks per beat
func (a *App) CycleSubdivisions() error {
	return a.updateConfig(func(c metronome.Config) metronome.Config {
		return c.WithSubdivisionCount(c.Subdivisions()%4 + 1)
	})
}

// AdjustSwing changes the swing ratio by delta
func (a *App) AdjustSwing(delta float64) error {
	return a.updateConfig(func(c metronome.Config) metronome.Config {
		return c.WithSwingRatio(c.Swing() + delta)
	})
}

// ToggleAccent switches the downbeat accent
func (a *App) ToggleAccent() error {
	return a.updateConfig(func(c metronome.Config) metronome.Config {
		return c.WithAccentDownbeat(!c.AccentDownbeat())
	})
}

// SetMeter changes the time signature
func (a *App) SetMeter(ts metronome.TimeSignature) error {
	return a.updateConfig(func(c metronome.Config) metronome.Config {
		return c.WithMeter(ts)
	})
}

func (a *App) updateConfig(change func(metronome.Config) metronome.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := change(a.scheduler.Config())
	if err := a.scheduler.UpdateConfig(next); err != nil {
		return fmt.Errorf("update metronome: %w", err)
	}
	return nil
}

// ToggleDropout switches dropout training; it takes effect at the next measure
func (a *App) ToggleDropout() {
	a.mu.Lock()
	defer a.mu.Unlock()

	d := a.scheduler.Dropout()
	d.Enabled = !d.Enabled
	a.scheduler.SetDropout(d)
	a.log.WithField("dropout", d.Enabled).Info("Dropout training toggled")
}

// ToggleTuner starts or stops pitch detection
func (a *App) ToggleTuner() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.detector.IsActive() {
		a.detector.Stop()
		return nil
	}
	return a.detector.Start()
}

// PlayStepCompletion plays the step-complete chime
func (a *App) PlayStepCompletion() error {
	return a.effects.PlayStepCompletion()
}

// PlaySessionEnd plays the session-end chime
func (a *App) PlaySessionEnd() error {
	return a.effects.PlaySessionEnd()
}

// Status is a snapshot for display
type Status struct {
	SessionID string

	Metronome metronome.State
	Config    metronome.Config
	Dropout   metronome.DropoutConfig
	Beats     uint64 // sub-beats scheduled since startup

	TunerActive bool
	Reading     tuner.Reading
	HasReading  bool

	EffectPlaying bool

	OutputBackend string
	InputBackend  string
	SampleRate    int
	Underruns     uint64
}

// Status collects the current state of every component without blocking
// on the audio threads
func (a *App) Status() Status {
	reading, ok := a.detector.Latest()
	return Status{
		SessionID:     a.sessionID,
		Metronome:     a.scheduler.State(),
		Config:        a.scheduler.Config(),
		Dropout:       a.scheduler.Dropout(),
		Beats:         a.beats.Load(),
		TunerActive:   a.detector.IsActive(),
		Reading:       reading,
		HasReading:    ok,
		EffectPlaying: a.effects.IsPlaying(),
		OutputBackend: a.cfg.OutputBackend,
		InputBackend:  a.cfg.InputBackend,
		SampleRate:    a.metronomeOut.SampleRate(),
		Underruns:     a.metronomeOut.Queue().Underruns(),
	}
}

// Close stops everything and releases the devices
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.scheduler.Stop()
	a.detector.Stop()

	var firstErr error
	if err := a.effects.Close(); err != nil {
		firstErr = err
	}
	if err := a.metronomeOut.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	a.log.Info("Application closed")
	return firstErr
}
