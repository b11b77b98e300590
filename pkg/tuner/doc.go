// Package tuner estimates the pitch of a monophonic signal with the YIN
// algorithm and maps it to the nearest equal-tempered note.
//
// Each frame is analysed independently; there is no smoothing between
// frames. Detector runs the analysis on a live input.
package tuner
