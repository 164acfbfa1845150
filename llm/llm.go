// Package llm is the client for the chat completion gateway.
package llm

import (
	"context"

	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/gateway"
)

type request struct {
	Messages []chat.ContextMessage `json:"messages"`
	Language string                `json:"language"`
}

type response struct {
	Response string `json:"response"`
}

// Gateway produces assistant replies for a turn history. The language
// directive is supplied server-side; the context window is sent as-is.
type Gateway struct {
	api *gateway.Client
}

// New creates a completion gateway client.
func New(api *gateway.Client) *Gateway {
	return &Gateway{api: api}
}

// Complete returns the assistant's next utterance in the chat's language.
func (g *Gateway) Complete(ctx context.Context, messages []chat.ContextMessage, language string) (string, error) {
	var resp response
	if err := g.api.PostJSON(ctx, "/chat-completion", request{Messages: messages, Language: language}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}
