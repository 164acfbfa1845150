package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"
	"github.com/pion/webrtc/v3/pkg/media/oggreader"
)

// TrackSink streams synthesized speech to a WebRTC audio track. The
// synthesis gateway returns Ogg Opus; pages are written to the track paced
// by their granule positions.
type TrackSink struct {
	track *webrtc.TrackLocalStaticSample
}

// NewTrackSink creates the sink and its local audio track.
func NewTrackSink() (*TrackSink, error) {
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"audio", "lingua-playback",
	)
	if err != nil {
		return nil, fmt.Errorf("could not create playback track: %w", err)
	}
	return &TrackSink{track: track}, nil
}

// Track exposes the local track for attachment to a peer connection.
func (s *TrackSink) Track() *webrtc.TrackLocalStaticSample {
	return s.track
}

// Play writes the Ogg Opus payload to the track in real time, stopping
// early if ctx is canceled.
func (s *TrackSink) Play(ctx context.Context, audio []byte) error {
	ogg, _, err := oggreader.NewWith(bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("could not parse synthesized audio: %w", err)
	}

	var lastGranule uint64
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		pageData, pageHeader, err := ogg.ParseNextPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("could not read audio page: %w", err)
		}

		sampleCount := pageHeader.GranulePosition - lastGranule
		lastGranule = pageHeader.GranulePosition
		sampleDuration := time.Duration(sampleCount) * time.Second / 48000

		if err := s.track.WriteSample(media.Sample{Data: pageData, Duration: sampleDuration}); err != nil {
			return fmt.Errorf("could not write audio sample: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
