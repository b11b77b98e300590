// ABOUTME: Frequency to note mapping
// ABOUTME: Equal temperament relative to A4 = 440Hz
package tuner

import (
	"fmt"
	"math"
)

// ReferenceA4 is the tuning reference in Hz
const ReferenceA4 = 440.0

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Reading is one pitch detection result
type Reading struct {
	Frequency float64 `json:"frequency"`
	Note      string  `json:"note"`
	Octave    int     `json:"octave"`
	Cents     float64 `json:"cents"` // deviation from the nearest note, [-50, 50]
	MIDI      int     `json:"midi"`
}

func (r Reading) String() string {
	return fmt.Sprintf("%s%d %+.1fc (%.2fHz)", r.Note, r.Octave, r.Cents, r.Frequency)
}

// InTune reports whether the reading is within tolerance cents of its note
func (r Reading) InTune(tolerance float64) bool {
	return math.Abs(r.Cents) <= tolerance
}

// FrequencyToNote maps a positive frequency to the nearest note
func FrequencyToNote(freq float64) Reading {
	m := 12*math.Log2(freq/ReferenceA4) + 69
	m0 := int(math.Round(m))
	return Reading{
		Frequency: freq,
		Note:      noteNames[((m0%12)+12)%12],
		Octave:    floorDiv(m0, 12) - 1,
		Cents:     (m - float64(m0)) * 100,
		MIDI:      m0,
	}
}

// NoteFrequency returns the equal-tempered frequency of a MIDI note
func NoteFrequency(midi int) float64 {
	return ReferenceA4 * math.Pow(2, float64(midi-69)/12)
}

// Analyze runs YIN on frame and maps the result to a note
func Analyze(frame []float64, sampleRate int, threshold float64) (Reading, bool) {
	freq, ok := YIN(frame, sampleRate, threshold)
	if !ok {
		return Reading{}, false
	}
	return FrequencyToNote(freq), true
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
