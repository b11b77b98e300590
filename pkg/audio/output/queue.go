// ABOUTME: Thread-safe buffer queue feeding device callbacks
// ABOUTME: Fires per-buffer completion callbacks as soon as a buffer is consumed
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

type queued struct {
	samples []float32
	onDone  func()
}

// Queue is a FIFO of PCM buffers consumed by a device callback
type Queue struct {
	mu       sync.Mutex
	channels int
	items    []*queued
	offset   int // samples of items[0] already consumed
	log      logrus.FieldLogger

	consumed  atomic.Uint64 // frames handed to the device
	underruns atomic.Uint64 // reads that ran dry partway through
}

// NewQueue creates a queue for interleaved buffers with the given channel count
func NewQueue(channels int, log logrus.FieldLogger) *Queue {
	if channels < 1 {
		channels = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Queue{
		channels: channels,
		log:      log,
	}
}

// Channels returns the channel count of the queue
func (q *Queue) Channels() int {
	return q.channels
}

// Push appends a buffer. onDone may be nil; it runs on the goroutine that
// consumes the buffer's last frame and must not block.
func (q *Queue) Push(buf audio.Buffer, onDone func()) error {
	if buf.Format.Channels != q.channels {
		return fmt.Errorf("buffer has %d channels, queue expects %d", buf.Format.Channels, q.channels)
	}

	q.mu.Lock()
	q.items = append(q.items, &queued{samples: buf.Samples, onDone: onDone})
	q.mu.Unlock()

	return nil
}

// Read implements Source. The lock is released before completion callbacks
// run so a callback can Push the next buffer and have it read in this call.
func (q *Queue) Read(dst []float32) int {
	filled := 0

	for filled < len(dst) {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			break
		}

		head := q.items[0]
		n := copy(dst[filled:], head.samples[q.offset:])
		q.offset += n
		filled += n

		var done func()
		if q.offset >= len(head.samples) {
			q.items[0] = nil
			q.items = q.items[1:]
			q.offset = 0
			done = head.onDone
		}
		q.mu.Unlock()

		if done != nil {
			q.complete(done)
		}
	}

	if filled < len(dst) {
		clear(dst[filled:])
		if filled > 0 {
			q.underruns.Add(1)
		}
	}

	q.consumed.Add(uint64(filled / q.channels))
	return filled
}

// complete runs a completion callback, keeping panics off the device thread
func (q *Queue) complete(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Errorf("Completion callback panicked: %v", r)
		}
	}()
	fn()
}

// Reset drops every pending buffer without firing its callback
func (q *Queue) Reset() {
	q.mu.Lock()
	clear(q.items)
	q.items = q.items[:0]
	q.offset = 0
	q.mu.Unlock()
}

// Len returns the number of buffers waiting or playing
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Consumed returns the number of frames handed to the device so far
func (q *Queue) Consumed() uint64 {
	return q.consumed.Load()
}

// Underruns returns how many device reads ran out of queued audio partway
func (q *Queue) Underruns() uint64 {
	return q.underruns.Load()
}

// Reader adapts a Source to an io.Reader producing float32 LE bytes
type Reader struct {
	src     Source
	scratch []float32
}

// NewReader wraps src for backends that pull bytes
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// Read never returns EOF; an empty source produces silence
func (r *Reader) Read(p []byte) (int, error) {
	n := len(p) / audio.BytesPerSample
	if n == 0 {
		return 0, nil
	}
	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	samples := r.scratch[:n]
	r.src.Read(samples)
	return audio.EncodeFloat32LE(p, samples) * audio.BytesPerSample, nil
}
