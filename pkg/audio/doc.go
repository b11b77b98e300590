// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the PCM types shared by the metronome, tuner and
// sound-effect pipelines.
//
// This package defines:
//   - Format: sample rate and channel count of a stream
//   - Buffer: interleaved float32 PCM audio
//
// It also provides little-endian float32 codecs used by device backends and a
// generic Clamp used by every configuration type.
//
// Example:
//
//	format := audio.Format{SampleRate: 44100, Channels: 2}
//	buf := audio.NewBuffer(22050, format) // half a second of silence
package audio
