// ABOUTME: Tests for note mapping
// ABOUTME: Checks names, octaves and cents around the reference pitch
package tuner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyToNote(t *testing.T) {
	tests := []struct {
		freq   float64
		note   string
		octave int
		midi   int
	}{
		{440, "A", 4, 69},
		{261.63, "C", 4, 60},
		{82.41, "E", 2, 40},
		{466.16, "A#", 4, 70},
		{1318.51, "E", 6, 88},
		{8.18, "C", -1, 0},
		{7.72, "B", -2, -1},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			r := FrequencyToNote(tt.freq)
			assert.Equal(t, tt.note, r.Note)
			assert.Equal(t, tt.octave, r.Octave)
			assert.Equal(t, tt.midi, r.MIDI)
			assert.InDelta(t, 0, r.Cents, 1)
			assert.Equal(t, tt.freq, r.Frequency)
		})
	}
}

func TestFrequencyToNoteCents(t *testing.T) {
	sharp := FrequencyToNote(445)
	assert.Equal(t, "A", sharp.Note)
	assert.InDelta(t, 19.56, sharp.Cents, 0.01)
	assert.False(t, sharp.InTune(5))

	flat := FrequencyToNote(435)
	assert.InDelta(t, -19.79, flat.Cents, 0.01)

	// just over a quarter tone above A rounds up to A#
	quarter := FrequencyToNote(NoteFrequency(69) * 1.03)
	assert.Equal(t, "A#", quarter.Note)
	assert.Less(t, quarter.Cents, 0.0)
}

func TestNoteFrequency(t *testing.T) {
	assert.Equal(t, 440.0, NoteFrequency(69))
	assert.InDelta(t, 261.63, NoteFrequency(60), 0.01)
	assert.InDelta(t, 880, NoteFrequency(81), 1e-9)
}

func TestReadingString(t *testing.T) {
	r := FrequencyToNote(440)
	assert.Equal(t, "A4 +0.0c (440.00Hz)", r.String())
	assert.True(t, r.InTune(0.1))
}
