// ABOUTME: Tests for YIN pitch estimation
// ABOUTME: Sine accuracy, loudness gate and band limits
package tuner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq, amplitude float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.Equal(t, 0.5, RMS([]float64{0.5, -0.5, 0.5, -0.5}))
	assert.InDelta(t, 0.5/math.Sqrt2, RMS(sine(440, 0.5, 44100, 44100)), 1e-4)
}

func TestCMNDConventions(t *testing.T) {
	cmnd := CMND(Difference(sine(440, 0.5, 44100, 256)))
	require.Len(t, cmnd, 128)
	assert.Equal(t, 1.0, cmnd[0])
	assert.Equal(t, 1.0, cmnd[1])

	flat := CMND(Difference(make([]float64, 64)))
	for tau := range flat {
		assert.Equal(t, 1.0, flat[tau])
	}
}

func TestYINPureSine440(t *testing.T) {
	freq, ok := YIN(sine(440, 0.5, 44100, DefaultFrameSize), 44100, DefaultThreshold)
	require.True(t, ok)
	assert.InDelta(t, 440, freq, 1)

	r, ok := Analyze(sine(440, 0.5, 44100, DefaultFrameSize), 44100, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, "A", r.Note)
	assert.Equal(t, 4, r.Octave)
	assert.InDelta(t, 0, r.Cents, 5)
}

func TestYINGuitarStrings(t *testing.T) {
	tests := []struct {
		name   string
		freq   float64
		note   string
		octave int
	}{
		{"low E", 82.41, "E", 2},
		{"A", 110.00, "A", 2},
		{"D", 146.83, "D", 3},
		{"G", 196.00, "G", 3},
		{"B", 246.94, "B", 3},
		{"high E", 329.63, "E", 4},
		{"12th fret high E", 659.26, "E", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Analyze(sine(tt.freq, 0.3, 44100, DefaultFrameSize), 44100, DefaultThreshold)
			require.True(t, ok)
			assert.InDelta(t, tt.freq, r.Frequency, tt.freq*0.005)
			assert.Equal(t, tt.note, r.Note)
			assert.Equal(t, tt.octave, r.Octave)
			assert.InDelta(t, 0, r.Cents, 10)
		})
	}
}

func TestYINOtherSampleRate(t *testing.T) {
	freq, ok := YIN(sine(440, 0.5, 48000, DefaultFrameSize), 48000, DefaultThreshold)
	require.True(t, ok)
	assert.InDelta(t, 440, freq, 1)
}

func TestYINSilenceGate(t *testing.T) {
	_, ok := YIN(make([]float64, DefaultFrameSize), 44100, DefaultThreshold)
	assert.False(t, ok)

	// audible pitch but below the gate
	_, ok = YIN(sine(440, 0.012, 44100, DefaultFrameSize), 44100, DefaultThreshold)
	assert.False(t, ok)

	rng := rand.New(rand.NewSource(1))
	noise := make([]float64, DefaultFrameSize)
	for i := range noise {
		noise[i] = (rng.Float64()*2 - 1) * 0.01
	}
	r, ok := Analyze(noise, 44100, DefaultThreshold)
	assert.False(t, ok)
	assert.Equal(t, Reading{}, r)
}

func TestYINRejectsOutOfBand(t *testing.T) {
	_, ok := YIN(sine(2000, 0.5, 44100, DefaultFrameSize), 44100, DefaultThreshold)
	assert.False(t, ok)
}

func TestYINRejectsLoudNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	noise := make([]float64, DefaultFrameSize)
	for i := range noise {
		noise[i] = rng.Float64()*2 - 1
	}
	_, ok := YIN(noise, 44100, DefaultThreshold)
	assert.False(t, ok)
}

func TestYINDegenerateInput(t *testing.T) {
	_, ok := YIN([]float64{0.5, -0.5}, 44100, DefaultThreshold)
	assert.False(t, ok)
	_, ok = YIN(sine(440, 0.5, 44100, 2048), 0, DefaultThreshold)
	assert.False(t, ok)
}

func TestAbsoluteThresholdWalksToMinimum(t *testing.T) {
	cmnd := []float64{1, 1, 0.9, 0.14, 0.10, 0.05, 0.08, 0.01}
	tau, ok := absoluteThreshold(cmnd, 0.15)
	require.True(t, ok)
	assert.Equal(t, 5, tau)
}

func TestAbsoluteThresholdLastIndex(t *testing.T) {
	cmnd := []float64{1, 1, 0.9, 0.8, 0.1}
	tau, ok := absoluteThreshold(cmnd, 0.15)
	require.True(t, ok)
	assert.Equal(t, 4, tau)
	assert.Equal(t, 4.0, parabolicInterpolation(cmnd, tau))
}

func TestAbsoluteThresholdNoCrossing(t *testing.T) {
	_, ok := absoluteThreshold([]float64{1, 1, 0.5, 0.4, 0.3}, 0.15)
	assert.False(t, ok)
}

func TestParabolicInterpolation(t *testing.T) {
	// symmetric neighbours leave tau unchanged
	assert.Equal(t, 3.0, parabolicInterpolation([]float64{1, 1, 0.5, 0.1, 0.5}, 3))
	// flat neighbourhood has a zero denominator
	assert.Equal(t, 2.0, parabolicInterpolation([]float64{1, 0.2, 0.2, 0.2}, 2))
	// vertex of y = (x-2.25)^2 sampled at 1, 2, 3
	got := parabolicInterpolation([]float64{0, 1.5625, 0.0625, 0.5625}, 2)
	assert.InDelta(t, 2.25, got, 1e-9)
}
