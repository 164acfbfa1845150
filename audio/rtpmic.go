package audio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/pion/rtp"
)

// RTPMicrophone is a Microphone fed by RTP packets carrying L16 mono PCM
// (big-endian 16-bit samples, RFC 3551). The capture ingest socket pushes
// raw packets; the capture machine pulls decoded frames.
type RTPMicrophone struct {
	frames chan []int16

	mu      sync.Mutex
	lastSeq uint16
	started bool
	closed  bool
}

// NewRTPMicrophone creates a microphone with room for about two seconds of
// 20ms frames.
func NewRTPMicrophone() *RTPMicrophone {
	return &RTPMicrophone{frames: make(chan []int16, 100)}
}

// Push decodes one RTP packet and queues its samples. Stale packets (at or
// behind the last seen sequence number) are dropped.
func (m *RTPMicrophone) Push(raw []byte) error {
	packet := &rtp.Packet{}
	if err := packet.Unmarshal(raw); err != nil {
		return fmt.Errorf("could not parse rtp packet: %w", err)
	}
	if len(packet.Payload)%2 != 0 {
		return fmt.Errorf("odd-length L16 payload in packet %d", packet.SequenceNumber)
	}

	samples := make([]int16, len(packet.Payload)/2)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(packet.Payload[i*2:]))
	}

	// The send stays under the lock so Close cannot close the channel out
	// from under an in-flight Push.
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("microphone is closed")
	}
	if m.started && seqLessOrEqual(packet.SequenceNumber, m.lastSeq) {
		return nil
	}
	m.started = true
	m.lastSeq = packet.SequenceNumber

	select {
	case m.frames <- samples:
		return nil
	default:
		// Reader is behind; drop the frame rather than block the socket.
		return nil
	}
}

// ReadFrame blocks until a frame arrives or the microphone is closed.
func (m *RTPMicrophone) ReadFrame() ([]int16, error) {
	frame, ok := <-m.frames
	if !ok {
		return nil, fmt.Errorf("microphone is closed")
	}
	return frame, nil
}

// Close releases the device. The reader still drains frames queued before
// the close.
func (m *RTPMicrophone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.frames)
	return nil
}

// seqLessOrEqual compares RTP sequence numbers with wraparound.
func seqLessOrEqual(a, b uint16) bool {
	return a == b || int16(a-b) < 0
}
