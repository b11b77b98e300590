// Package metronome schedules click buffers back to back so that every beat
// lands on an exact sample boundary.
//
// Each sub-beat is one buffer: the click at its start followed by silence up
// to the sub-beat length. When the output reports that a buffer has been
// fully played, the scheduler queues the next one. Start and Stop bump a
// generation counter so completions from an earlier run are ignored.
package metronome
