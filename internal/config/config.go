// ABOUTME: Runtime configuration from flags and environment
// ABOUTME: FRETCOACH_* variables provide defaults that flags override
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio/input"
	"github.com/fretcoach/fretcoach/pkg/audio/output"
	"github.com/fretcoach/fretcoach/pkg/metronome"
	"github.com/fretcoach/fretcoach/pkg/tuner"
)

// ErrInvalidBackend is returned for unknown audio backend names
var ErrInvalidBackend = errors.New("invalid audio backend")

// Config holds all runtime configuration
type Config struct {
	// Audio devices
	OutputBackend string
	InputBackend  string
	SampleRate    int // 0 = device default

	// Metronome
	BPM             int
	BeatsPerMeasure int
	BeatUnit        int
	Subdivisions    int
	Swing           float64
	Accent          bool

	// Dropout training
	DropoutEnabled bool
	DropoutPlay    int
	DropoutMute    int

	// Tuner
	FrameSize     int
	Threshold     float64
	ToneFrequency float64 // used by the tone input backend
	StartTuner    bool

	// Process
	LogFile  string
	LogLevel logrus.Level
	NoTUI    bool
}

// Load parses args (without the program name) on top of environment defaults
func Load(args []string) (Config, error) {
	var cfg Config
	var logLevel string

	fs := flag.NewFlagSet("fretcoach", flag.ContinueOnError)

	fs.StringVar(&cfg.OutputBackend, "output", envStr("FRETCOACH_OUTPUT", output.BackendMalgo), "Audio output backend (malgo, oto, portaudio, null)")
	fs.StringVar(&cfg.InputBackend, "input", envStr("FRETCOACH_INPUT", input.BackendMalgo), "Audio input backend (malgo, portaudio, tone)")
	fs.IntVar(&cfg.SampleRate, "sample-rate", envInt("FRETCOACH_SAMPLE_RATE", 0), "Requested sample rate in Hz (0 = device default)")

	fs.IntVar(&cfg.BPM, "bpm", envInt("FRETCOACH_BPM", metronome.DefaultBPM), "Metronome tempo")
	fs.IntVar(&cfg.BeatsPerMeasure, "beats", envInt("FRETCOACH_BEATS", 4), "Beats per measure")
	fs.IntVar(&cfg.BeatUnit, "beat-unit", envInt("FRETCOACH_BEAT_UNIT", 4), "Note value of one beat")
	fs.IntVar(&cfg.Subdivisions, "subdivisions", envInt("FRETCOACH_SUBDIVISIONS", 1), "Clicks per beat")
	fs.Float64Var(&cfg.Swing, "swing", envFloat("FRETCOACH_SWING", metronome.MinSwing), "Swing ratio for eighth notes (0.5-0.75)")
	fs.BoolVar(&cfg.Accent, "accent", envBool("FRETCOACH_ACCENT", true), "Accent the downbeat")

	fs.BoolVar(&cfg.DropoutEnabled, "dropout", envBool("FRETCOACH_DROPOUT", false), "Enable dropout training")
	fs.IntVar(&cfg.DropoutPlay, "dropout-play", envInt("FRETCOACH_DROPOUT_PLAY", 4), "Measures played per dropout cycle")
	fs.IntVar(&cfg.DropoutMute, "dropout-mute", envInt("FRETCOACH_DROPOUT_MUTE", 2), "Measures muted per dropout cycle")

	fs.IntVar(&cfg.FrameSize, "frame-size", envInt("FRETCOACH_FRAME_SIZE", tuner.DefaultFrameSize), "Tuner analysis frame size in samples")
	fs.Float64Var(&cfg.Threshold, "threshold", envFloat("FRETCOACH_THRESHOLD", tuner.DefaultThreshold), "YIN threshold")
	fs.Float64Var(&cfg.ToneFrequency, "tone", envFloat("FRETCOACH_TONE", input.DefaultToneFrequency), "Frequency of the tone input backend")
	fs.BoolVar(&cfg.StartTuner, "tuner", envBool("FRETCOACH_TUNER", false), "Start with the tuner running")

	fs.StringVar(&cfg.LogFile, "log-file", envStr("FRETCOACH_LOG_FILE", "fretcoach.log"), "Log file path")
	fs.StringVar(&logLevel, "log-level", envStr("FRETCOACH_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.NoTUI, "no-tui", envBool("FRETCOACH_NO_TUI", false), "Disable TUI, use streaming logs instead")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return Config{}, fmt.Errorf("log level: %w", err)
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.OutputBackend {
	case output.BackendMalgo, output.BackendOto, output.BackendPortAudio, output.BackendNull:
	default:
		return fmt.Errorf("%w: output %q", ErrInvalidBackend, c.OutputBackend)
	}

	switch c.InputBackend {
	case input.BackendMalgo, input.BackendPortAudio, input.BackendTone:
	default:
		return fmt.Errorf("%w: input %q", ErrInvalidBackend, c.InputBackend)
	}

	return nil
}

// Metronome converts the settings to an engine configuration; out of range
// values are clamped there
func (c Config) Metronome() metronome.Config {
	return metronome.NewConfig(c.BPM,
		metronome.WithTimeSignature(metronome.TimeSignature{
			BeatsPerMeasure: c.BeatsPerMeasure,
			BeatUnit:        c.BeatUnit,
		}),
		metronome.WithAccent(c.Accent),
		metronome.WithSubdivisions(c.Subdivisions),
		metronome.WithSwing(c.Swing),
	)
}

// Dropout converts the dropout settings
func (c Config) Dropout() metronome.DropoutConfig {
	return metronome.NewDropoutConfig(c.DropoutEnabled, c.DropoutPlay, c.DropoutMute)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
