// Package audio owns the two exclusive audio resources: the playback slot
// and the microphone capture session.
package audio

import (
	"sync"

	"github.com/verbano/lingua-service/events"
)

// Arbiter grants at most one concurrent playback slot across all messages in
// a chat view. It is a single ownership slot, not a per-message lock.
type Arbiter struct {
	mu       sync.Mutex
	holderID string
	bus      *events.Bus
}

// NewArbiter creates an arbiter with an unheld slot. bus may be nil.
func NewArbiter(bus *events.Bus) *Arbiter {
	return &Arbiter{bus: bus}
}

// Acquire requests the playback slot for messageID. ok reports whether the
// caller may play; alreadyHeld reports a re-entrant request by the current
// holder, which callers must treat as a no-op rather than starting audio
// again.
func (a *Arbiter) Acquire(messageID string) (ok, alreadyHeld bool) {
	a.mu.Lock()
	switch a.holderID {
	case "":
		a.holderID = messageID
		a.mu.Unlock()
		a.notify(messageID)
		return true, false
	case messageID:
		a.mu.Unlock()
		return true, true
	default:
		a.mu.Unlock()
		return false, false
	}
}

// Release returns the slot if messageID is the current holder. Releasing an
// unheld or foreign slot is a no-op, so release can be paired with every
// exit path without double-release hazards.
func (a *Arbiter) Release(messageID string) {
	a.mu.Lock()
	if a.holderID != messageID {
		a.mu.Unlock()
		return
	}
	a.holderID = ""
	a.mu.Unlock()
	a.notify("")
}

// Holder returns the id of the message currently holding the slot, or an
// empty string when the slot is unheld.
func (a *Arbiter) Holder() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holderID
}

func (a *Arbiter) notify(holderID string) {
	if a.bus != nil {
		a.bus.PublishPlayback(holderID)
	}
}
