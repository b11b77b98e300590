// ABOUTME: Fixed-size frame assembly over a circular buffer
// ABOUTME: Turns arbitrary capture chunks into analysis frames
package input

import (
	"github.com/andrepxx/go-dsp-guitar/circular"
)

// FrameAssembler collects samples into a sliding window and emits the
// newest frameSize samples every hop samples. With hop == frameSize the
// frames do not overlap.
type FrameAssembler struct {
	frameSize int
	hop       int
	window    circular.Buffer
	frame     []float64
	scratch   []float64
	filled    int // samples written since Reset, saturating at frameSize
	sinceEmit int
	emit      func(frame []float64)
}

// NewFrameAssembler creates an assembler. hop is clamped to [1, frameSize].
// emit receives a slice that is reused between calls.
func NewFrameAssembler(frameSize, hop int, emit func(frame []float64)) *FrameAssembler {
	frameSize = max(1, frameSize)
	if hop < 1 || hop > frameSize {
		hop = frameSize
	}
	return &FrameAssembler{
		frameSize: frameSize,
		hop:       hop,
		window:    circular.CreateBuffer(frameSize),
		frame:     make([]float64, frameSize),
		emit:      emit,
	}
}

// FrameSize returns the analysis frame length
func (f *FrameAssembler) FrameSize() int {
	return f.frameSize
}

// Write appends captured samples, emitting as many frames as complete.
// It is not safe for concurrent use.
func (f *FrameAssembler) Write(samples []float32) {
	for len(samples) > 0 {
		n := min(len(samples), f.hop-f.sinceEmit)

		if cap(f.scratch) < n {
			f.scratch = make([]float64, n)
		}
		chunk := f.scratch[:n]
		for i, s := range samples[:n] {
			chunk[i] = float64(s)
		}
		f.window.Enqueue(chunk...)

		samples = samples[n:]
		f.filled = min(f.frameSize, f.filled+n)
		f.sinceEmit += n

		if f.sinceEmit < f.hop {
			continue
		}
		f.sinceEmit = 0
		if f.filled < f.frameSize {
			continue
		}

		if err := f.window.Retrieve(f.frame); err != nil {
			continue
		}
		if f.emit != nil {
			f.emit(f.frame)
		}
	}
}

// Reset discards buffered samples
func (f *FrameAssembler) Reset() {
	f.window = circular.CreateBuffer(f.frameSize)
	f.filled = 0
	f.sinceEmit = 0
}
