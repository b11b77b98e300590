// ABOUTME: Tests for the output stream pipeline
// ABOUTME: Drives the null backend with a fake clock
package output

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/fretcoach/fretcoach/pkg/audio"
	"github.com/fretcoach/fretcoach/pkg/audio/synth"
)

type failingOutput struct{}

func (failingOutput) Open(int, int, Source) error { return errors.New("no device") }
func (failingOutput) SampleRate() int             { return 0 }
func (failingOutput) Close() error                { return nil }

func TestStreamScheduleBeforeStart(t *testing.T) {
	s := NewStream(NewNull())
	err := s.Schedule(audio.NewBuffer(10, audio.Format{SampleRate: 44100, Channels: 2}), nil)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestStreamStartFailure(t *testing.T) {
	s := NewStream(failingOutput{})
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device")
	assert.ErrorIs(t, s.Schedule(audio.Buffer{}, nil), ErrNotOpen)
}

func TestStreamSampleRateDefaults(t *testing.T) {
	assert.Equal(t, audio.DefaultSampleRate, NewStream(NewNull()).SampleRate())
	assert.Equal(t, 48000, NewStream(NewNull(), WithSampleRate(48000)).SampleRate())
}

func TestStreamAcceptsSynthesizedBuffers(t *testing.T) {
	s := NewStream(NewNull(WithClock(testingclock.NewFakeClock(time.Unix(0, 0)))))
	require.NoError(t, s.Start())
	defer s.Close()

	clicks := synth.NewClickSet(s.SampleRate())
	assert.Equal(t, clicks.Downbeat.Format.Channels, s.Channels())
	for _, buf := range []audio.Buffer{
		clicks.Downbeat,
		clicks.Normal,
		clicks.Subdivision,
		synth.CompletionChime(s.SampleRate()),
		synth.SessionEndChime(s.SampleRate()),
	} {
		require.NoError(t, s.Schedule(buf, nil))
	}
	assert.Equal(t, 5, s.Pending())
}

func TestStreamPlaysThroughNullOutput(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Unix(0, 0))
	s := NewStream(NewNull(WithClock(fc)), WithSampleRate(44100))
	require.NoError(t, s.Start())
	defer s.Close()

	// exactly one null period
	buf := audio.NewBuffer(441, audio.Format{SampleRate: 44100, Channels: 2})
	done := make(chan struct{})
	require.NoError(t, s.Schedule(buf, func() { close(done) }))
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(NullPeriod)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("buffer was not consumed")
	}
	assert.Equal(t, 0, s.Pending())
	require.Eventually(t, func() bool { return s.Queue().Consumed() == 441 }, time.Second, time.Millisecond)
}

func TestStreamStopDropsPending(t *testing.T) {
	fc := testingclock.NewFakeClock(time.Unix(0, 0))
	s := NewStream(NewNull(WithClock(fc)))
	require.NoError(t, s.Start())
	defer s.Close()

	fired := make(chan struct{}, 1)
	buf := audio.NewBuffer(100, audio.Format{SampleRate: 44100, Channels: 2})
	require.NoError(t, s.Schedule(buf, func() { fired <- struct{}{} }))

	s.Stop()
	assert.Equal(t, 0, s.Pending())

	fc.Step(NullPeriod)
	select {
	case <-fired:
		t.Fatal("completion fired after Stop")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	s := NewStream(NewNull(WithClock(testingclock.NewFakeClock(time.Unix(0, 0)))))
	require.NoError(t, s.Start())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
