package interfaces

import (
	"context"

	"github.com/verbano/lingua-service/chat"
)

// ConversationStore is the durable store for chats and their ordered
// messages. A write that returns an error must be treated as not having
// happened: the core never shows a message as sent if the store rejected it.
type ConversationStore interface {
	CreateChat(ctx context.Context, name, language, translatedLanguage string) (string, error)
	AppendMessage(ctx context.Context, chatID string, m chat.Message) error
	LoadChats(ctx context.Context) ([]*chat.Chat, error)
	DeleteChat(ctx context.Context, chatID string) error
	Ping(ctx context.Context) error
	Close() error
}
