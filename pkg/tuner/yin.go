// ABOUTME: YIN fundamental frequency estimation
// ABOUTME: Loudness gate, normalized difference, threshold walk and interpolation
package tuner

import (
	"math"
)

const (
	// DefaultThreshold is the YIN absolute threshold
	DefaultThreshold = 0.15

	// SilenceRMS is the loudness gate; frames at or below it are not analysed
	SilenceRMS = 0.01

	// MinFrequency and MaxFrequency bound the accepted guitar range
	MinFrequency = 60.0
	MaxFrequency = 1400.0
)

// RMS returns the root mean square of frame
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Difference computes d(tau) = sum over i < N/2 of (x[i] - x[i+tau])^2 for
// tau in [0, N/2)
func Difference(frame []float64) []float64 {
	half := len(frame) / 2
	d := make([]float64, half)
	for tau := 1; tau < half; tau++ {
		var sum float64
		for i := 0; i < half; i++ {
			delta := frame[i] - frame[i+tau]
			sum += delta * delta
		}
		d[tau] = sum
	}
	return d
}

// CMND turns a difference function into the cumulative mean normalized
// difference in place. d'(0) is 1.
func CMND(d []float64) []float64 {
	if len(d) == 0 {
		return d
	}
	d[0] = 1
	var running float64
	for tau := 1; tau < len(d); tau++ {
		running += d[tau]
		if running > 0 {
			d[tau] = d[tau] * float64(tau) / running
		} else {
			d[tau] = 1
		}
	}
	return d
}

// YIN estimates the fundamental frequency of frame. It reports false for
// quiet frames, frames with no clear period, and pitches not strictly
// between MinFrequency and MaxFrequency.
func YIN(frame []float64, sampleRate int, threshold float64) (float64, bool) {
	if sampleRate <= 0 || len(frame) < 8 {
		return 0, false
	}
	if RMS(frame) <= SilenceRMS {
		return 0, false
	}

	cmnd := CMND(Difference(frame))

	tau, ok := absoluteThreshold(cmnd, threshold)
	if !ok {
		return 0, false
	}

	period := parabolicInterpolation(cmnd, tau)
	if period <= 0 {
		return 0, false
	}

	freq := float64(sampleRate) / period
	if freq <= MinFrequency || freq >= MaxFrequency {
		return 0, false
	}
	return freq, true
}

// absoluteThreshold finds the first tau below threshold and follows the
// descent to its local minimum. A crossing on the last index is the minimum.
func absoluteThreshold(cmnd []float64, threshold float64) (int, bool) {
	for tau := 2; tau < len(cmnd); tau++ {
		if cmnd[tau] >= threshold {
			continue
		}
		for tau+1 < len(cmnd) && cmnd[tau+1] < cmnd[tau] {
			tau++
		}
		return tau, true
	}
	return 0, false
}

// parabolicInterpolation refines tau by fitting a parabola through its
// neighbours. Boundary indices and flat neighbourhoods are returned as is.
func parabolicInterpolation(cmnd []float64, tau int) float64 {
	if tau < 1 || tau+1 >= len(cmnd) {
		return float64(tau)
	}
	s0, s1, s2 := cmnd[tau-1], cmnd[tau], cmnd[tau+1]
	denom := 2 * (2*s1 - s2 - s0)
	if denom == 0 {
		return float64(tau)
	}
	return float64(tau) + (s2-s0)/denom
}
