package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_ExecutesSubmittedJobs(t *testing.T) {
	p := New(1, 4)
	p.Start()
	defer p.Stop()

	done := make(chan error, 1)
	p.Submit(PlaybackJob{
		Ctx:       context.Background(),
		MessageID: "1",
		Text:      "hello",
		Play:      func(ctx context.Context, messageID, text string) error { return nil },
		ErrChan:   done,
	})

	require.NoError(t, <-done)
}

func TestPool_ReportsPlaybackFailureOnJobChannel(t *testing.T) {
	p := New(1, 4)
	p.Start()
	defer p.Stop()

	done := make(chan error, 1)
	p.Submit(PlaybackJob{
		Ctx:       context.Background(),
		MessageID: "1",
		Play:      func(ctx context.Context, messageID, text string) error { return errors.New("synthesis failed") },
		ErrChan:   done,
	})

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesis failed")
}

func TestPool_FullQueueDropsJob(t *testing.T) {
	// No workers started: the first job fills the queue, the second drops.
	p := New(1, 1)

	p.Submit(PlaybackJob{MessageID: "1"})

	done := make(chan error, 1)
	p.Submit(PlaybackJob{MessageID: "2", ErrChan: done})

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestPool_SubmitAfterStopIsRejected(t *testing.T) {
	p := New(1, 4)
	p.Start()
	p.Stop()
	p.Stop() // idempotent

	done := make(chan error, 1)
	p.Submit(PlaybackJob{MessageID: "1", ErrChan: done})

	err := <-done
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool stopped")
}
