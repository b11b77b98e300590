// ABOUTME: Tests for the live pitch detector
// ABOUTME: Feeds frames through fake and tone inputs
package tuner

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/fretcoach/fretcoach/pkg/audio/input"
)

// fakeInput hands the capture callback to the test
type fakeInput struct {
	mu        sync.Mutex
	openErr   error
	rate      int
	onSamples func([]float32)
	closed    int
}

func (f *fakeInput) Open(sampleRate int, onSamples func([]float32)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.onSamples = onSamples
	return nil
}

func (f *fakeInput) SampleRate() int { return f.rate }

func (f *fakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeInput) push(samples []float64) {
	f.mu.Lock()
	fn := f.onSamples
	f.mu.Unlock()

	chunk := make([]float32, len(samples))
	for i, s := range samples {
		chunk[i] = float32(s)
	}
	fn(chunk)
}

func newTestDetector(in input.Input, opts ...DetectorOption) *Detector {
	logger, _ := test.NewNullLogger()
	return NewDetector(in, append([]DetectorOption{WithLogger(logger)}, opts...)...)
}

func TestDetectorPublishesReading(t *testing.T) {
	in := &fakeInput{rate: 44100}
	var handled int
	d := newTestDetector(in, WithReadingHandler(func(Reading, bool) { handled++ }))

	require.NoError(t, d.Start())
	assert.True(t, d.IsActive())
	assert.Equal(t, 44100, d.SampleRate())

	_, ok := d.Latest()
	assert.False(t, ok)

	in.push(sine(440, 0.5, 44100, DefaultFrameSize))
	r, ok := d.Latest()
	require.True(t, ok)
	assert.Equal(t, "A", r.Note)
	assert.Equal(t, 4, r.Octave)
	assert.Equal(t, 1, handled)

	// silence supersedes the previous reading
	in.push(make([]float64, DefaultFrameSize))
	_, ok = d.Latest()
	assert.False(t, ok)
	assert.Equal(t, 2, handled)
}

func TestDetectorWaitsForFullFrame(t *testing.T) {
	in := &fakeInput{rate: 44100}
	d := newTestDetector(in)
	require.NoError(t, d.Start())

	frame := sine(440, 0.5, 44100, DefaultFrameSize)
	in.push(frame[:1000])
	_, ok := d.Latest()
	assert.False(t, ok)

	in.push(frame[1000:])
	_, ok = d.Latest()
	assert.True(t, ok)
}

func TestDetectorStopClearsAndDiscards(t *testing.T) {
	in := &fakeInput{rate: 44100}
	d := newTestDetector(in)
	require.NoError(t, d.Start())

	in.push(sine(440, 0.5, 44100, DefaultFrameSize))
	_, ok := d.Latest()
	require.True(t, ok)

	d.Stop()
	assert.False(t, d.IsActive())
	assert.Equal(t, 1, in.closed)
	_, ok = d.Latest()
	assert.False(t, ok)

	// a callback still in flight after stop is ignored
	in.push(sine(440, 0.5, 44100, DefaultFrameSize))
	_, ok = d.Latest()
	assert.False(t, ok)

	d.Stop()
	assert.Equal(t, 1, in.closed)
}

func TestDetectorStaleFrameDropped(t *testing.T) {
	in := &fakeInput{rate: 44100}
	d := newTestDetector(in)
	require.NoError(t, d.Start())
	stale := d.session.Load()
	d.Stop()
	require.NoError(t, d.Start())

	d.process(sine(440, 0.5, 44100, DefaultFrameSize), stale)
	_, ok := d.Latest()
	assert.False(t, ok)
}

func TestDetectorStartFailure(t *testing.T) {
	in := &fakeInput{openErr: errors.New("no microphone")}
	d := newTestDetector(in)

	err := d.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, in.openErr)
	assert.False(t, d.IsActive())
}

func TestDetectorStartTwice(t *testing.T) {
	in := &fakeInput{rate: 48000}
	d := newTestDetector(in)
	require.NoError(t, d.Start())
	require.NoError(t, d.Start())
	assert.Equal(t, 48000, d.SampleRate())
}

func TestDetectorOptions(t *testing.T) {
	d := NewDetector(&fakeInput{}, WithFrameSize(4096), WithThreshold(0.1), WithHop(1024), WithSampleRate(48000))
	assert.Equal(t, 4096, d.frameSize)
	assert.Equal(t, 0.1, d.threshold)
	assert.Equal(t, 1024, d.hop)
	assert.Equal(t, 48000, d.requestedRate)

	// out of range values keep the defaults
	d = NewDetector(&fakeInput{}, WithFrameSize(2), WithThreshold(3))
	assert.Equal(t, DefaultFrameSize, d.frameSize)
	assert.Equal(t, DefaultThreshold, d.threshold)
}

func TestDetectorWithToneInput(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Unix(0, 0))
	logger, _ := test.NewNullLogger()
	in := input.NewTone(input.WithClock(fc), input.WithTone(329.63, 0.5), input.WithLogger(logger))
	d := newTestDetector(in)

	require.NoError(t, d.Start())
	defer d.Stop()

	require.Eventually(t, func() bool {
		fc.Step(input.TonePeriod)
		_, ok := d.Latest()
		return ok
	}, 5*time.Second, 5*time.Millisecond)

	r, _ := d.Latest()
	assert.Equal(t, "E", r.Note)
	assert.Equal(t, 4, r.Octave)
}
