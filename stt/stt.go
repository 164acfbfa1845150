// Package stt is the transcription gateway client, backed by Google Cloud
// Speech.
package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// STT transcribes finalized audio clips.
type STT struct {
	speechClient *speech.Client
	sampleRate   int
	languageCode string
}

// New creates a Google Cloud Speech client. It relies on Application Default
// Credentials for authentication.
func New(ctx context.Context, sampleRate int, languageCode string) (*STT, error) {
	speechClient, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &STT{speechClient: speechClient, sampleRate: sampleRate, languageCode: languageCode}, nil
}

// Close cleans up the speech client connection.
func (s *STT) Close() {
	if s.speechClient != nil {
		_ = s.speechClient.Close()
	}
}

// Transcribe runs synchronous recognition on a mono LINEAR16 WAV clip and
// returns the combined transcript. An empty transcript is a valid result.
func (s *STT) Transcribe(ctx context.Context, clip []byte) (string, error) {
	resp, err := s.speechClient.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(s.sampleRate),
			LanguageCode:    s.languageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: clip},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize request failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}
