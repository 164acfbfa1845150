// Package worker runs playback jobs off the turn pipeline's critical path.
package worker

import (
	"context"
	"fmt"
	"sync"

	logger "github.com/verbano/lingua-service/log"
)

// PlaybackFunc synthesizes and plays one message.
type PlaybackFunc func(ctx context.Context, messageID, text string) error

// PlaybackJob holds all the data for a single playback task. ErrChan, when
// set, receives the job's outcome; playback failures never reach the
// pipeline that spawned the job.
type PlaybackJob struct {
	Ctx       context.Context
	MessageID string
	Text      string
	Play      PlaybackFunc
	ErrChan   chan<- error
}

// Pool manages a fixed set of workers and a queue of playback jobs.
type Pool struct {
	jobQueue   chan PlaybackJob
	maxWorkers int

	mu      sync.Mutex
	stopped bool
}

// New creates a new Pool.
func New(maxWorkers, queueSize int) *Pool {
	return &Pool{
		jobQueue:   make(chan PlaybackJob, queueSize),
		maxWorkers: maxWorkers,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 1; i <= p.maxWorkers; i++ {
		go p.worker()
	}
}

// Submit queues a job, dropping it with a logged error when the queue is
// full or the pool has stopped rather than blocking or panicking. The mutex
// spans the send so Stop cannot close the queue underneath it.
func (p *Pool) Submit(job PlaybackJob) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.reject(job, fmt.Errorf("playback pool stopped, dropping job for message %s", job.MessageID))
		return
	}
	select {
	case p.jobQueue <- job:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.reject(job, fmt.Errorf("playback queue full, dropping job for message %s", job.MessageID))
	}
}

// Stop closes the queue; workers exit after draining it. Safe to call more
// than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	close(p.jobQueue)
}

func (p *Pool) reject(job PlaybackJob, err error) {
	logger.Error("submitting playback job", err)
	if job.ErrChan != nil {
		job.ErrChan <- err
	}
}

func (p *Pool) worker() {
	for job := range p.jobQueue {
		err := job.Play(job.Ctx, job.MessageID, job.Text)
		if err != nil {
			logger.Error(fmt.Sprintf("playback of message %s", job.MessageID), err)
		}
		if job.ErrChan != nil {
			job.ErrChan <- err
		}
	}
}
