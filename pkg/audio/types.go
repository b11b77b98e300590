// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, float sample buffers and sample codecs
package audio

import (
	"encoding/binary"
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

const (
	// DefaultSampleRate is used when a device does not report its rate
	DefaultSampleRate = 44100

	// DefaultChannels is the channel count of every rendered output buffer
	DefaultChannels = 2

	// BytesPerSample is the size of one float32 LE sample
	BytesPerSample = 4
)

// Format describes a PCM stream format
type Format struct {
	SampleRate int
	Channels   int
}

// Buffer represents interleaved float32 PCM audio
type Buffer struct {
	Samples []float32 // interleaved, nominal range [-1, 1]
	Format  Format
}

// NewBuffer allocates a zero-filled (silent) buffer of the given frame count
func NewBuffer(frames int, format Format) Buffer {
	if frames < 0 {
		frames = 0
	}
	if format.Channels < 1 {
		format.Channels = 1
	}
	return Buffer{
		Samples: make([]float32, frames*format.Channels),
		Format:  format,
	}
}

// Frames returns the number of frames in the buffer
func (b Buffer) Frames() int {
	if b.Format.Channels < 1 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback length of the buffer
func (b Buffer) Duration() time.Duration {
	if b.Format.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// Channel copies one channel of the buffer into a new mono slice
func (b Buffer) Channel(ch int) []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	if ch < 0 || ch >= b.Format.Channels {
		return out
	}
	for i := 0; i < frames; i++ {
		out[i] = b.Samples[i*b.Format.Channels+ch]
	}
	return out
}

// CopyFrames copies up to n frames from src into the start of b and returns
// the number of frames copied. Channel counts must match.
func (b Buffer) CopyFrames(src Buffer, n int) int {
	if src.Format.Channels != b.Format.Channels {
		return 0
	}
	n = Clamp(n, 0, min(src.Frames(), b.Frames()))
	copy(b.Samples[:n*b.Format.Channels], src.Samples[:n*src.Format.Channels])
	return n
}

// Clamp limits v to the closed range [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SampleRateOrDefault returns rate, or DefaultSampleRate if rate is not positive
func SampleRateOrDefault(rate int) int {
	if rate <= 0 {
		return DefaultSampleRate
	}
	return rate
}

// EncodeFloat32LE writes samples into dst as little-endian float32 and
// returns the number of samples written
func EncodeFloat32LE(dst []byte, samples []float32) int {
	n := min(len(samples), len(dst)/BytesPerSample)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*BytesPerSample:], math.Float32bits(samples[i]))
	}
	return n
}

// DecodeFloat32LE reads little-endian float32 samples from src into dst and
// returns the number of samples decoded
func DecodeFloat32LE(dst []float32, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*BytesPerSample:]))
	}
	return n
}
