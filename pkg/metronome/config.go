// ABOUTME: Metronome and dropout configuration values
// ABOUTME: Clamps every field at construction and derives sub-beat timing
package metronome

import (
	"math"
	"time"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// Configuration limits
const (
	MinBPM   = 20
	MaxBPM   = 300
	MinSwing = 0.5
	MaxSwing = 0.75

	DefaultBPM = 120
)

// TimeSignature is a meter such as 4/4 or 6/8
type TimeSignature struct {
	BeatsPerMeasure int `json:"beatsPerMeasure"`
	BeatUnit        int `json:"beatUnit"`
}

// Common meters
var (
	FourFour  = TimeSignature{BeatsPerMeasure: 4, BeatUnit: 4}
	ThreeFour = TimeSignature{BeatsPerMeasure: 3, BeatUnit: 4}
	SixEight  = TimeSignature{BeatsPerMeasure: 6, BeatUnit: 8}
)

func (ts TimeSignature) normalized() TimeSignature {
	return TimeSignature{
		BeatsPerMeasure: max(1, ts.BeatsPerMeasure),
		BeatUnit:        max(1, ts.BeatUnit),
	}
}

// ClickKind selects which click a sub-beat plays
type ClickKind int

const (
	ClickDownbeat ClickKind = iota
	ClickNormal
	ClickSubdivision
)

func (k ClickKind) String() string {
	switch k {
	case ClickDownbeat:
		return "downbeat"
	case ClickNormal:
		return "normal"
	case ClickSubdivision:
		return "subdivision"
	default:
		return "unknown"
	}
}

// Config is an immutable metronome configuration. Construct it with
// NewConfig; out-of-range values are clamped, never rejected.
type Config struct {
	bpm            int
	timeSignature  TimeSignature
	accentDownbeat bool
	subdivisions   int
	swing          float64
}

// ConfigOption customizes NewConfig
type ConfigOption func(*Config)

// WithTimeSignature sets the meter
func WithTimeSignature(ts TimeSignature) ConfigOption {
	return func(c *Config) { c.timeSignature = ts }
}

// WithAccent sets whether beat 1 uses the downbeat click
func WithAccent(accent bool) ConfigOption {
	return func(c *Config) { c.accentDownbeat = accent }
}

// WithSubdivisions sets the number of sub-beats per beat
func WithSubdivisions(n int) ConfigOption {
	return func(c *Config) { c.subdivisions = n }
}

// WithSwing sets the on-beat share of a beat split in two
func WithSwing(ratio float64) ConfigOption {
	return func(c *Config) { c.swing = ratio }
}

// NewConfig builds a clamped configuration. Defaults: 4/4, accented
// downbeat, one subdivision, straight timing.
func NewConfig(bpm int, opts ...ConfigOption) Config {
	c := Config{
		bpm:            bpm,
		timeSignature:  FourFour,
		accentDownbeat: true,
		subdivisions:   1,
		swing:          MinSwing,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c.clamped()
}

// DefaultConfig is 120 bpm in 4/4
func DefaultConfig() Config {
	return NewConfig(DefaultBPM)
}

func (c Config) clamped() Config {
	c.bpm = audio.Clamp(c.bpm, MinBPM, MaxBPM)
	c.timeSignature = c.timeSignature.normalized()
	c.subdivisions = max(1, c.subdivisions)
	if math.IsNaN(c.swing) {
		c.swing = MinSwing
	}
	c.swing = audio.Clamp(c.swing, MinSwing, MaxSwing)
	return c
}

// WithBPM returns a copy with a new tempo
func (c Config) WithBPM(bpm int) Config {
	c.bpm = bpm
	return c.clamped()
}

// WithSwingRatio returns a copy with a new swing ratio
func (c Config) WithSwingRatio(ratio float64) Config {
	c.swing = ratio
	return c.clamped()
}

// WithSubdivisionCount returns a copy with a new subdivision count
func (c Config) WithSubdivisionCount(n int) Config {
	c.subdivisions = n
	return c.clamped()
}

// WithMeter returns a copy with a new time signature
func (c Config) WithMeter(ts TimeSignature) Config {
	c.timeSignature = ts
	return c.clamped()
}

// WithAccentDownbeat returns a copy with the accent flag changed
func (c Config) WithAccentDownbeat(accent bool) Config {
	c.accentDownbeat = accent
	return c.clamped()
}

func (c Config) BPM() int                     { return c.bpm }
func (c Config) TimeSignature() TimeSignature { return c.timeSignature }
func (c Config) AccentDownbeat() bool         { return c.accentDownbeat }
func (c Config) Subdivisions() int            { return c.subdivisions }
func (c Config) Swing() float64               { return c.swing }

// IsZero reports whether c was never built by NewConfig
func (c Config) IsZero() bool {
	return c.bpm == 0
}

// SubBeatsPerMeasure is beatsPerMeasure * subdivisions
func (c Config) SubBeatsPerMeasure() int {
	return c.timeSignature.BeatsPerMeasure * c.subdivisions
}

// Swung reports whether sub-beats alternate long and short
func (c Config) Swung() bool {
	return c.subdivisions == 2 && c.swing != MinSwing
}

// BeatDuration is 60/bpm seconds
func (c Config) BeatDuration() float64 {
	return 60.0 / float64(c.bpm)
}

// SubBeatDuration returns the length in seconds of sub-beat i of a measure.
// With two subdivisions and swing, even sub-beats take swing of the beat and
// odd ones take the rest.
func (c Config) SubBeatDuration(i int) float64 {
	beat := c.BeatDuration()
	if c.Swung() {
		if i%2 == 0 {
			return beat * c.swing
		}
		return beat * (1 - c.swing)
	}
	return beat / float64(c.subdivisions)
}

// SubBeatFrames is the buffer length of sub-beat i at sampleRate. It never
// returns less than one frame.
func (c Config) SubBeatFrames(i, sampleRate int) int {
	frames := int(math.Round(c.SubBeatDuration(i) * float64(sampleRate)))
	return max(1, frames)
}

// MeasureDuration is the nominal length of one measure
func (c Config) MeasureDuration() time.Duration {
	seconds := c.BeatDuration() * float64(c.timeSignature.BeatsPerMeasure)
	return time.Duration(seconds * float64(time.Second))
}

// ClickFor classifies sub-beat i of a measure
func (c Config) ClickFor(i int) ClickKind {
	switch {
	case i == 0 && c.accentDownbeat:
		return ClickDownbeat
	case i%c.subdivisions == 0:
		return ClickNormal
	default:
		return ClickSubdivision
	}
}

// DropoutConfig drives silence training: play a number of measures, then
// mute a number of measures, repeating
type DropoutConfig struct {
	Enabled      bool `json:"enabled"`
	PlayMeasures int  `json:"playMeasures"`
	MuteMeasures int  `json:"muteMeasures"`
}

// NewDropoutConfig clamps both measure counts to at least one
func NewDropoutConfig(enabled bool, playMeasures, muteMeasures int) DropoutConfig {
	return DropoutConfig{
		Enabled:      enabled,
		PlayMeasures: max(1, playMeasures),
		MuteMeasures: max(1, muteMeasures),
	}
}

func (d DropoutConfig) normalized() DropoutConfig {
	return NewDropoutConfig(d.Enabled, d.PlayMeasures, d.MuteMeasures)
}
