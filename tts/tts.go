// Package tts is the client for the speech synthesis gateway.
package tts

import (
	"context"

	"github.com/verbano/lingua-service/gateway"
)

type request struct {
	Text string `json:"text"`
}

// Gateway converts text to a playable audio payload.
type Gateway struct {
	api *gateway.Client
}

// New creates a synthesis gateway client.
func New(api *gateway.Client) *Gateway {
	return &Gateway{api: api}
}

// Synthesize returns the audio payload for the given text.
func (g *Gateway) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return g.api.PostBinary(ctx, "/text-to-speech", request{Text: text})
}
