// Package events provides the process-wide broadcast bus for signals that
// are not scoped to a single pipeline call.
package events

import "sync"

// Bus is an observer registry with no persistent subscriber state.
type Bus struct {
	mu                sync.RWMutex
	sessionExpired    []func()
	playbackChanged   []func(holderID string)
	captureTranscript []func(transcript string)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeSessionExpired registers a callback fired when any gateway call
// reports an expired credential. Callbacks run synchronously on the
// publishing goroutine.
func (b *Bus) SubscribeSessionExpired(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionExpired = append(b.sessionExpired, fn)
}

// PublishSessionExpired notifies all session-expired subscribers.
func (b *Bus) PublishSessionExpired() {
	b.mu.RLock()
	subs := make([]func(), len(b.sessionExpired))
	copy(subs, b.sessionExpired)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// SubscribePlayback registers a callback fired whenever the playback slot
// changes hands. holderID is empty when the slot is released.
func (b *Bus) SubscribePlayback(fn func(holderID string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playbackChanged = append(b.playbackChanged, fn)
}

// PublishPlayback notifies playback subscribers of the new slot holder.
func (b *Bus) PublishPlayback(holderID string) {
	b.mu.RLock()
	subs := make([]func(string), len(b.playbackChanged))
	copy(subs, b.playbackChanged)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(holderID)
	}
}

// SubscribeTranscript registers a callback fired when a capture session
// finalizes with a transcript.
func (b *Bus) SubscribeTranscript(fn func(transcript string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.captureTranscript = append(b.captureTranscript, fn)
}

// PublishTranscript notifies transcript subscribers.
func (b *Bus) PublishTranscript(transcript string) {
	b.mu.RLock()
	subs := make([]func(string), len(b.captureTranscript))
	copy(subs, b.captureTranscript)
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(transcript)
	}
}
