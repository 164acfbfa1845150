package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/verbano/lingua-service/events"
	"github.com/verbano/lingua-service/interfaces"
)

// Phase is the capture state machine state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseFinalizing
)

// Microphone is an exclusive handle on the capture device. ReadFrame blocks
// until a frame of mono 16-bit PCM is available and returns an error once
// the handle is closed.
type Microphone interface {
	ReadFrame() ([]int16, error)
	Close() error
}

// DeviceOpener acquires the microphone from the host environment.
type DeviceOpener func() (Microphone, error)

// Capture is the speech capture state machine. One session at a time: the
// machine owns the microphone handle while in PhaseRecording and guarantees
// the handle is released exactly once, before any transcription happens.
type Capture struct {
	opener      DeviceOpener
	transcriber interfaces.Transcriber
	bus         *events.Bus

	// threshold is the average absolute amplitude (fraction of full scale)
	// below which a clip is discarded without a transcription call.
	threshold  float64
	sampleRate int

	mu             sync.Mutex
	phase          Phase
	mic            Microphone
	buf            []int16
	drained        chan struct{}
	cancelFinalize context.CancelFunc
	closed         bool
}

// NewCapture creates an idle capture machine.
func NewCapture(opener DeviceOpener, transcriber interfaces.Transcriber, bus *events.Bus, threshold float64, sampleRate int) *Capture {
	return &Capture{
		opener:      opener,
		transcriber: transcriber,
		bus:         bus,
		threshold:   threshold,
		sampleRate:  sampleRate,
		phase:       PhaseIdle,
	}
}

// Phase returns the current state.
func (c *Capture) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start begins a recording session. A second start while recording stops the
// current session and discards it without starting a new one (one-button
// toggle semantics). Device acquisition failure leaves the machine idle.
func (c *Capture) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("capture is closed")
	}
	switch c.phase {
	case PhaseRecording:
		mic, drained := c.takeDeviceLocked()
		c.phase = PhaseIdle
		c.mu.Unlock()
		releaseDevice(mic, drained)
		c.discardClip()
		return nil
	case PhaseFinalizing:
		c.mu.Unlock()
		return fmt.Errorf("capture is finalizing a previous session")
	}
	c.mu.Unlock()

	mic, err := c.opener()
	if err != nil {
		return fmt.Errorf("could not acquire microphone: %w", err)
	}

	c.mu.Lock()
	if c.closed || c.phase != PhaseIdle {
		c.mu.Unlock()
		_ = mic.Close()
		return fmt.Errorf("capture state changed during device acquisition")
	}
	c.mic = mic
	c.buf = nil
	c.drained = make(chan struct{})
	c.phase = PhaseRecording
	drained := c.drained
	c.mu.Unlock()

	go c.readLoop(mic, drained)
	return nil
}

// readLoop accumulates frames until the device handle is closed, then hands
// the session's buffer to the machine. Sessions are serialized, so the
// handoff cannot collide with another session's.
func (c *Capture) readLoop(mic Microphone, drained chan struct{}) {
	var clip []int16
	for {
		frame, err := mic.ReadFrame()
		if err != nil {
			break
		}
		clip = append(clip, frame...)
	}
	c.mu.Lock()
	c.buf = clip
	c.mu.Unlock()
	close(drained)
}

// Stop ends the recording session and finalizes the clip: the device is
// released immediately, then the clip is silence-gated and, if it passes,
// transcribed. Returns the transcript, which may legitimately be empty.
func (c *Capture) Stop(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.phase != PhaseRecording {
		c.mu.Unlock()
		return "", nil
	}
	c.phase = PhaseFinalizing
	mic, drained := c.takeDeviceLocked()
	c.mu.Unlock()

	// Device resources must never remain held into finalizing.
	releaseDevice(mic, drained)
	clip := c.takeClip()

	transcript, err := c.finalize(ctx, clip)

	c.mu.Lock()
	c.phase = PhaseIdle
	closed := c.closed
	c.mu.Unlock()

	if closed {
		// Torn down mid-finalize: discard the result.
		return "", err
	}
	if err == nil && transcript != "" && c.bus != nil {
		c.bus.PublishTranscript(transcript)
	}
	return transcript, err
}

// finalize applies the silence gate and calls the transcription gateway.
func (c *Capture) finalize(ctx context.Context, clip []int16) (string, error) {
	if len(clip) == 0 || averageAmplitude(clip) < c.threshold {
		return "", nil
	}
	if c.transcriber == nil {
		return "", fmt.Errorf("transcription is not configured")
	}

	wav, err := EncodeWAV(clip, c.sampleRate)
	if err != nil {
		return "", fmt.Errorf("could not assemble clip: %w", err)
	}

	fctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFinalize = cancel
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelFinalize = nil
		c.mu.Unlock()
		cancel()
	}()

	transcript, err := c.transcriber.Transcribe(fctx, wav)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	return transcript, nil
}

// Close tears the machine down: any recording is discarded, the device
// handle is released exactly once and an in-flight transcription is
// canceled. Safe to call more than once.
func (c *Capture) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var mic Microphone
	var drained chan struct{}
	if c.phase == PhaseRecording {
		mic, drained = c.takeDeviceLocked()
		c.phase = PhaseIdle
	}
	cancel := c.cancelFinalize
	c.mu.Unlock()

	releaseDevice(mic, drained)
	c.discardClip()
	if cancel != nil {
		cancel()
	}
}

// takeClip removes the finished session's samples from the machine.
func (c *Capture) takeClip() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip := c.buf
	c.buf = nil
	return clip
}

func (c *Capture) discardClip() {
	c.mu.Lock()
	c.buf = nil
	c.mu.Unlock()
}

// takeDeviceLocked removes the device handle from the machine so exactly one
// caller becomes responsible for closing it. Callers must hold c.mu.
func (c *Capture) takeDeviceLocked() (Microphone, chan struct{}) {
	mic := c.mic
	drained := c.drained
	c.mic = nil
	c.drained = nil
	return mic, drained
}

// releaseDevice closes the handle and waits for the read loop to exit.
func releaseDevice(mic Microphone, drained chan struct{}) {
	if mic == nil {
		return
	}
	_ = mic.Close()
	if drained != nil {
		<-drained
	}
}

// averageAmplitude returns the mean absolute sample value as a fraction of
// full scale.
func averageAmplitude(samples []int16) float64 {
	var total float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		total += v
	}
	return total / float64(len(samples)) / 32768.0
}
