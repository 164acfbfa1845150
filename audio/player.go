package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/verbano/lingua-service/interfaces"
)

// Sink is the audio output channel playback is written to. Implementations
// must respect context cancellation mid-stream.
type Sink interface {
	Play(ctx context.Context, audio []byte) error
}

// Player synthesizes message text and streams it to the sink while holding
// the playback slot. The slot is released on every exit path: natural
// completion, synthesis failure, playback failure and explicit stop.
type Player struct {
	arbiter *Arbiter
	synth   interfaces.Synthesizer
	sink    Sink

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPlayer creates a player over the given arbiter, synthesizer and sink.
func NewPlayer(arbiter *Arbiter, synth interfaces.Synthesizer, sink Sink) *Player {
	return &Player{arbiter: arbiter, synth: synth, sink: sink}
}

// Play requests the slot for messageID, synthesizes text and streams the
// result to the sink. A request while another message holds the slot is
// rejected; a re-entrant request by the holder is a no-op.
func (p *Player) Play(ctx context.Context, messageID, text string) error {
	ok, alreadyHeld := p.arbiter.Acquire(messageID)
	if !ok {
		return fmt.Errorf("playback slot held by message %s", p.arbiter.Holder())
	}
	if alreadyHeld {
		return nil
	}
	defer p.arbiter.Release(messageID)

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.setCancel(cancel)
	defer p.setCancel(nil)

	audio, err := p.synth.Synthesize(playCtx, text)
	if err != nil {
		return fmt.Errorf("synthesis failed for message %s: %w", messageID, err)
	}
	if err := p.sink.Play(playCtx, audio); err != nil {
		return fmt.Errorf("playback failed for message %s: %w", messageID, err)
	}
	return nil
}

// Stop interrupts the in-flight playback, if any. The interrupted Play call
// releases the slot on its way out.
func (p *Player) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *Player) setCancel(cancel context.CancelFunc) {
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
}
