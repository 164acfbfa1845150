package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMic is a scripted microphone that delivers pre-loaded frames and
// counts how many times it was closed.
type fakeMic struct {
	frames     chan []int16
	closeCount int32
	closeOnce  sync.Once
}

func newFakeMic(frames ...[]int16) *fakeMic {
	m := &fakeMic{frames: make(chan []int16, len(frames)+1)}
	for _, f := range frames {
		m.frames <- f
	}
	return m
}

func (m *fakeMic) ReadFrame() ([]int16, error) {
	f, ok := <-m.frames
	if !ok {
		return nil, errors.New("device closed")
	}
	return f, nil
}

func (m *fakeMic) Close() error {
	atomic.AddInt32(&m.closeCount, 1)
	m.closeOnce.Do(func() { close(m.frames) })
	return nil
}

// fakeTranscriber counts calls and returns a fixed transcript.
type fakeTranscriber struct {
	calls      int32
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, clip []byte) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.transcript, f.err
}

func frameOf(value int16, n int) []int16 {
	frame := make([]int16, n)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

func newTestCapture(mic *fakeMic, tr *fakeTranscriber) *Capture {
	opener := func() (Microphone, error) { return mic, nil }
	return NewCapture(opener, tr, nil, 0.01, 48000)
}

func TestCapture_SilentClipNeverReachesTranscriber(t *testing.T) {
	// Amplitude 10 of 32768 is well under the 0.01 threshold.
	mic := newFakeMic(frameOf(10, 960), frameOf(10, 960))
	tr := &fakeTranscriber{transcript: "should never appear"}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	transcript, err := c.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", transcript)
	assert.Equal(t, int32(0), atomic.LoadInt32(&tr.calls))
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestCapture_LoudClipIsTranscribed(t *testing.T) {
	mic := newFakeMic(frameOf(5000, 960))
	tr := &fakeTranscriber{transcript: "hello world"}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	assert.Equal(t, PhaseRecording, c.Phase())

	transcript, err := c.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tr.calls))
	// The device was released before transcription, exactly once.
	assert.Equal(t, int32(1), atomic.LoadInt32(&mic.closeCount))
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestCapture_EmptyClipIsDiscarded(t *testing.T) {
	mic := newFakeMic()
	tr := &fakeTranscriber{}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	transcript, err := c.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", transcript)
	assert.Equal(t, int32(0), atomic.LoadInt32(&tr.calls))
}

func TestCapture_DeviceFailureReturnsToIdle(t *testing.T) {
	opener := func() (Microphone, error) { return nil, errors.New("permission denied") }
	c := NewCapture(opener, &fakeTranscriber{}, nil, 0.01, 48000)

	err := c.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not acquire microphone")
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestCapture_SecondStartStopsAndDiscards(t *testing.T) {
	mic := newFakeMic(frameOf(5000, 960))
	tr := &fakeTranscriber{transcript: "should never appear"}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	require.NoError(t, c.Start()) // toggle: stop current, discard

	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, int32(1), atomic.LoadInt32(&mic.closeCount))
	assert.Equal(t, int32(0), atomic.LoadInt32(&tr.calls))

	// The discarded clip must not leak into a later session.
	transcript, err := c.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", transcript)
}

func TestCapture_TeardownReleasesDeviceExactlyOnce(t *testing.T) {
	mic := newFakeMic(frameOf(5000, 960))
	tr := &fakeTranscriber{}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	c.Close()
	c.Close() // safe to call twice

	assert.Equal(t, int32(1), atomic.LoadInt32(&mic.closeCount))
	assert.Equal(t, int32(0), atomic.LoadInt32(&tr.calls))
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Error(t, c.Start())
}

func TestCapture_StopWhileIdleIsNoOp(t *testing.T) {
	c := newTestCapture(newFakeMic(), &fakeTranscriber{})

	transcript, err := c.Stop(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "", transcript)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestCapture_TranscriberFailureSurfacesAndResets(t *testing.T) {
	mic := newFakeMic(frameOf(5000, 960))
	tr := &fakeTranscriber{err: errors.New("gateway unreachable")}
	c := newTestCapture(mic, tr)

	require.NoError(t, c.Start())
	_, err := c.Stop(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription failed")
	assert.Equal(t, PhaseIdle, c.Phase())
}
