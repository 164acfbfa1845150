// Package translate is the client for the translation gateway.
package translate

import (
	"context"

	"github.com/verbano/lingua-service/gateway"
)

type request struct {
	Text     string `json:"text"`
	FromLang string `json:"fromLang"`
	ToLang   string `json:"toLang"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
}

// Gateway translates text between two languages.
type Gateway struct {
	api *gateway.Client
}

// New creates a translation gateway client.
func New(api *gateway.Client) *Gateway {
	return &Gateway{api: api}
}

// Translate converts text from fromLang to toLang.
func (g *Gateway) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	var resp response
	if err := g.api.PostJSON(ctx, "/translate", request{Text: text, FromLang: fromLang, ToLang: toLang}, &resp); err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}
