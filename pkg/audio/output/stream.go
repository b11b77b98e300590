// ABOUTME: Output pipeline pairing one device with one buffer queue
// ABOUTME: Opens lazily, schedules buffers and halts playback on demand
package output

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/fretcoach/fretcoach/pkg/audio"
)

// Stream is an independent playback pipeline
type Stream struct {
	mu            sync.Mutex
	out           Output
	queue         *Queue
	requestedRate int
	open          atomic.Bool
	log           logrus.FieldLogger
}

// StreamOption configures a Stream
type StreamOption func(*Stream)

// WithSampleRate requests a device sample rate (0 = device default)
func WithSampleRate(rate int) StreamOption {
	return func(s *Stream) {
		s.requestedRate = rate
	}
}

// WithStreamLogger sets the logger used by the stream
func WithStreamLogger(l logrus.FieldLogger) StreamOption {
	return func(s *Stream) {
		if l != nil {
			s.log = l
			s.queue.log = l
		}
	}
}

// NewStream creates a stereo pipeline on top of out
func NewStream(out Output, opts ...StreamOption) *Stream {
	log := logrus.StandardLogger().WithField("component", "output")
	s := &Stream{
		out:   out,
		queue: NewQueue(audio.DefaultChannels, log),
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the device if needed. Opening twice is a no-op.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open.Load() {
		return nil
	}

	if err := s.out.Open(s.requestedRate, s.queue.Channels(), s.queue); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	s.open.Store(true)

	return nil
}

// Stop halts playback immediately by dropping every queued buffer.
// The device stays open and plays silence.
func (s *Stream) Stop() {
	s.queue.Reset()
}

// Schedule queues buf for playback after everything already scheduled
func (s *Stream) Schedule(buf audio.Buffer, onDone func()) error {
	if !s.open.Load() {
		return ErrNotOpen
	}
	return s.queue.Push(buf, onDone)
}

// SampleRate returns the device rate once open, else the requested rate
// or the default
func (s *Stream) SampleRate() int {
	if s.open.Load() {
		if rate := s.out.SampleRate(); rate > 0 {
			return rate
		}
	}
	return audio.SampleRateOrDefault(s.requestedRate)
}

// Channels returns the channel count of the pipeline. It is always
// audio.DefaultChannels, the layout every synthesized buffer uses.
func (s *Stream) Channels() int {
	return s.queue.Channels()
}

// Pending returns the number of buffers queued or playing
func (s *Stream) Pending() int {
	return s.queue.Len()
}

// Queue exposes the underlying queue for statistics
func (s *Stream) Queue() *Queue {
	return s.queue
}

// Close stops playback and releases the device
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue.Reset()
	if !s.open.Swap(false) {
		return nil
	}
	return s.out.Close()
}
