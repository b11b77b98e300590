// ABOUTME: Click and chime synthesis package
// ABOUTME: Renders decaying sine pulses as static PCM buffers
// Package synth renders the metronome clicks and notification chimes.
//
// Every generator is a pure function of its arguments: the same inputs always
// produce identical samples, which makes the output usable as golden data in
// tests. Buffers are stereo with both channels identical.
//
// Example:
//
//	click := synth.DownbeatClick(44100)
//	chime := synth.CompletionChime(44100)
package synth
