// Package input provides mono audio capture backends.
//
// Backends push captured samples to a callback on their own goroutine.
// FrameAssembler regroups those chunks into fixed-size analysis frames.
package input
