// ABOUTME: Click waveform synthesizer
// ABOUTME: Generates downbeat, beat, subdivision clicks and notification chimes
package synth

import (
	"math"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// ClickDecay is the envelope decay rate of the short click variants
const ClickDecay = 200.0

// Chime parameters
const (
	completionLow   = 523.25 // C5
	completionHigh  = 659.25 // E5
	completionDecay = 8.0
	completionAmp   = 0.6

	sessionEndDecay = 3.0
	sessionEndAmp   = 0.4
)

// sessionEndTriad is a C major triad: C4, E4, G4
var sessionEndTriad = []float64{261.63, 329.63, 392.00}

// Tone renders amplitude * exp(-t*decay) * sin(2*pi*frequency*t) for
// round(durationSeconds*sampleRate) frames
func Tone(frequencyHz, durationSeconds float64, sampleRate int, amplitude, decay float64) audio.Buffer {
	sr := audio.SampleRateOrDefault(sampleRate)
	buf := audio.NewBuffer(frameCount(durationSeconds, sr), format(sr))

	for i := 0; i < buf.Frames(); i++ {
		t := float64(i) / float64(sr)
		sample := amplitude * math.Exp(-t*decay) * math.Sin(2*math.Pi*frequencyHz*t)
		writeFrame(buf, i, sample)
	}

	return buf
}

// GenerateClick renders a short click with the standard click decay
func GenerateClick(frequencyHz, durationSeconds float64, sampleRate int, amplitude float64) audio.Buffer {
	return Tone(frequencyHz, durationSeconds, sampleRate, amplitude, ClickDecay)
}

// DownbeatClick is the higher-pitched accent for beat 1
func DownbeatClick(sampleRate int) audio.Buffer {
	return GenerateClick(880, 0.025, sampleRate, 0.9)
}

// NormalClick is the click for unaccented main beats
func NormalClick(sampleRate int) audio.Buffer {
	return GenerateClick(440, 0.020, sampleRate, 0.7)
}

// SubdivisionClick is the softer tick between main beats
func SubdivisionClick(sampleRate int) audio.Buffer {
	return GenerateClick(660, 0.015, sampleRate, 0.5)
}

// CompletionChime is a two-tone ascending chime played when a step ends.
// The envelope restarts at the midpoint where the pitch switches.
func CompletionChime(sampleRate int) audio.Buffer {
	sr := audio.SampleRateOrDefault(sampleRate)
	buf := audio.NewBuffer(frameCount(0.5, sr), format(sr))
	half := buf.Frames() / 2

	for i := 0; i < buf.Frames(); i++ {
		t := float64(i) / float64(sr)
		freq := completionLow
		local := t
		if i >= half {
			freq = completionHigh
			local = float64(i-half) / float64(sr)
		}
		sample := completionAmp * math.Exp(-local*completionDecay) * math.Sin(2*math.Pi*freq*t)
		writeFrame(buf, i, sample)
	}

	return buf
}

// SessionEndChime is a one-second major chord played when a session ends
func SessionEndChime(sampleRate int) audio.Buffer {
	sr := audio.SampleRateOrDefault(sampleRate)
	buf := audio.NewBuffer(frameCount(1.0, sr), format(sr))

	for i := 0; i < buf.Frames(); i++ {
		t := float64(i) / float64(sr)
		envelope := sessionEndAmp * math.Exp(-t*sessionEndDecay)

		var sample float64
		for _, freq := range sessionEndTriad {
			sample += envelope * math.Sin(2*math.Pi*freq*t)
		}
		sample /= float64(len(sessionEndTriad))

		writeFrame(buf, i, sample)
	}

	return buf
}

// ClickSet holds the metronome clicks rendered for one sample rate
type ClickSet struct {
	SampleRate  int
	Downbeat    audio.Buffer
	Normal      audio.Buffer
	Subdivision audio.Buffer
}

// NewClickSet renders all three metronome clicks
func NewClickSet(sampleRate int) ClickSet {
	sr := audio.SampleRateOrDefault(sampleRate)
	return ClickSet{
		SampleRate:  sr,
		Downbeat:    DownbeatClick(sr),
		Normal:      NormalClick(sr),
		Subdivision: SubdivisionClick(sr),
	}
}

func frameCount(durationSeconds float64, sampleRate int) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(math.Round(durationSeconds * float64(sampleRate)))
}

func format(sampleRate int) audio.Format {
	return audio.Format{SampleRate: sampleRate, Channels: audio.DefaultChannels}
}

// writeFrame duplicates a mono sample to every channel of frame i
func writeFrame(buf audio.Buffer, i int, sample float64) {
	ch := buf.Format.Channels
	v := float32(sample)
	for c := 0; c < ch; c++ {
		buf.Samples[i*ch+c] = v
	}
}
