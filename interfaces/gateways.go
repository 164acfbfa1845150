// Package interfaces defines the contracts between the conversation core and
// its external collaborators.
package interfaces

import (
	"context"

	"github.com/verbano/lingua-service/chat"
)

// Translator converts text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, fromLang, toLang string) (string, error)
}

// Completer produces the assistant's next utterance for a turn history.
type Completer interface {
	Complete(ctx context.Context, messages []chat.ContextMessage, language string) (string, error)
}

// Synthesizer converts text to a playable audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber converts a recorded audio clip to text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip []byte) (string, error)
}
