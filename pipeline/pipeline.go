// Package pipeline drives the conversation turn: translate, persist,
// generate, translate, persist, optionally speak.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/interfaces"
	logger "github.com/verbano/lingua-service/log"
	"github.com/verbano/lingua-service/session"
	"github.com/verbano/lingua-service/store"
	"github.com/verbano/lingua-service/worker"
)

// ErrTurnInFlight rejects a turn submitted while the same chat's previous
// turn has not finished.
var ErrTurnInFlight = errors.New("a turn is already in flight for this chat")

// Orchestrator owns the turn pipeline and keeps the in-memory chat store in
// step with the durable conversation store.
type Orchestrator struct {
	chats      *chat.Store
	convStore  interfaces.ConversationStore
	translator interfaces.Translator
	completer  interfaces.Completer
	pool       *worker.Pool
	play       worker.PlaybackFunc
	settings   *session.Settings

	mu       sync.Mutex
	inflight map[string]bool

	// archive is best-effort and may be nil in tests.
	archive func(chatID string, m chat.Message) error
}

// New creates an orchestrator. pool and play may be nil when playback is not
// wired (the autoplay preference is then ignored).
func New(chats *chat.Store, convStore interfaces.ConversationStore, translator interfaces.Translator,
	completer interfaces.Completer, pool *worker.Pool, play worker.PlaybackFunc, settings *session.Settings) *Orchestrator {
	return &Orchestrator{
		chats:      chats,
		convStore:  convStore,
		translator: translator,
		completer:  completer,
		pool:       pool,
		play:       play,
		settings:   settings,
		inflight:   make(map[string]bool),
		archive:    store.SaveMessage,
	}
}

// Chats exposes the in-memory chat store.
func (o *Orchestrator) Chats() *chat.Store {
	return o.chats
}

// SubmitUserTurn runs one full turn for the chat. Turns are serialized per
// chat: a submission while the previous turn is still running is rejected
// with ErrTurnInFlight. On failure the pipeline stops at the failing step;
// messages durably appended by earlier steps remain, nothing is rolled back,
// and no retry happens. A caller whose turn failed at the first translation
// step can safely keep the user's draft, since nothing was appended.
func (o *Orchestrator) SubmitUserTurn(ctx context.Context, chatID, rawText string) error {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return inputInvalid("submit turn", errors.New("empty message"))
	}
	c, err := o.chats.Get(chatID)
	if err != nil {
		return inputInvalid("submit turn", err)
	}

	if !o.beginTurn(chatID) {
		return inputInvalid("submit turn", ErrTurnInFlight)
	}
	defer o.endTurn(chatID)

	// Translate the user's text first: the message is never appended
	// half-translated.
	userTranslated, err := o.translator.Translate(ctx, text, c.Language, c.TranslatedLanguage)
	if err != nil {
		return classify(KindGatewayFailure, "translating user message", err)
	}

	userID, err := o.chats.NextID(chatID)
	if err != nil {
		return inputInvalid("submit turn", err)
	}
	userMsg := chat.Message{
		ID:         userID,
		Role:       chat.RoleUser,
		Content:    text,
		Translated: userTranslated,
	}
	if err := o.persistAndAppend(ctx, chatID, userMsg); err != nil {
		return err
	}

	window, err := o.chats.Window(chatID)
	if err != nil {
		return inputInvalid("submit turn", err)
	}
	reply, err := o.completer.Complete(ctx, window, c.Language)
	if err != nil {
		return classify(KindGatewayFailure, "generating reply", err)
	}

	replyTranslated, err := o.translator.Translate(ctx, reply, c.Language, c.TranslatedLanguage)
	if err != nil {
		return classify(KindGatewayFailure, "translating reply", err)
	}

	assistantID, err := o.chats.NextID(chatID)
	if err != nil {
		return inputInvalid("submit turn", err)
	}
	assistantMsg := chat.Message{
		ID:         assistantID,
		Role:       chat.RoleAssistant,
		Content:    reply,
		Translated: replyTranslated,
	}
	if err := o.persistAndAppend(ctx, chatID, assistantMsg); err != nil {
		return err
	}

	// The turn is finished; playback runs on its own and reports failures
	// through its own channel, never through this turn.
	if o.settings.AutoPlay() && o.pool != nil && o.play != nil {
		o.pool.Submit(worker.PlaybackJob{
			Ctx:       context.Background(),
			MessageID: assistantMsg.ID,
			Text:      assistantMsg.Content,
			Play:      o.play,
		})
	}
	return nil
}

// persistAndAppend writes the message durably, then mirrors it into the
// in-memory chat and context window. A store rejection means the message was
// never sent: no in-memory mutation happens.
func (o *Orchestrator) persistAndAppend(ctx context.Context, chatID string, m chat.Message) error {
	if err := o.convStore.AppendMessage(ctx, chatID, m); err != nil {
		return classify(KindPersistenceFailure, fmt.Sprintf("persisting %s message", m.Role), err)
	}
	if err := o.chats.Append(chatID, m); err != nil {
		return inputInvalid("appending message", err)
	}
	if o.archive != nil {
		if err := o.archive(chatID, m); err != nil {
			logger.Error(fmt.Sprintf("archiving message %s in chat %s", m.ID, chatID), err)
		}
	}
	return nil
}

// RequestPlayback queues spoken playback of a message through the worker
// pool. The arbiter downstream decides whether the slot is free.
func (o *Orchestrator) RequestPlayback(chatID, messageID string) error {
	if o.pool == nil || o.play == nil {
		return &Error{Kind: KindDeviceFailure, Op: "request playback", Err: errors.New("playback is not configured")}
	}
	m, err := o.chats.FindMessage(chatID, messageID)
	if err != nil {
		return inputInvalid("request playback", err)
	}
	o.pool.Submit(worker.PlaybackJob{
		Ctx:       context.Background(),
		MessageID: messageID,
		Text:      m.Content,
		Play:      o.play,
	})
	return nil
}

// CreateChat persists a new chat, mirrors it in memory with a seeded context
// window and selects it.
func (o *Orchestrator) CreateChat(ctx context.Context, name, language, translatedLanguage string) (*chat.Chat, error) {
	id, err := o.convStore.CreateChat(ctx, name, language, translatedLanguage)
	if err != nil {
		return nil, classify(KindPersistenceFailure, "creating chat", err)
	}
	c := &chat.Chat{
		ID:                 id,
		Name:               name,
		Language:           language,
		TranslatedLanguage: translatedLanguage,
	}
	c.SeedContext()
	o.chats.Put(c)
	if err := o.chats.Select(id); err != nil {
		return nil, inputInvalid("creating chat", err)
	}
	return c, nil
}

// OpenChat selects a chat and rebuilds its context window from the messages
// already in memory, restoring the system placeholder at the front.
func (o *Orchestrator) OpenChat(chatID string) (*chat.Chat, error) {
	c, err := o.chats.Open(chatID)
	if err != nil {
		return nil, inputInvalid("opening chat", err)
	}
	return c, nil
}

// DeleteChat removes a chat durably and in memory. Selection moves to a
// surviving chat, or clears when none remain.
func (o *Orchestrator) DeleteChat(ctx context.Context, chatID string) error {
	if err := o.convStore.DeleteChat(ctx, chatID); err != nil {
		return classify(KindPersistenceFailure, "deleting chat", err)
	}
	o.chats.Delete(chatID)
	if err := store.RemoveChat(chatID); err != nil {
		logger.Error(fmt.Sprintf("removing archive for chat %s", chatID), err)
	}
	return nil
}

// LoadChats fills the in-memory store from the durable one, seeding each
// chat's context window.
func (o *Orchestrator) LoadChats(ctx context.Context) error {
	chats, err := o.convStore.LoadChats(ctx)
	if err != nil {
		return classify(KindPersistenceFailure, "loading chats", err)
	}
	for _, c := range chats {
		c.SeedContext()
		o.chats.Put(c)
	}
	return nil
}

func (o *Orchestrator) beginTurn(chatID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight[chatID] {
		return false
	}
	o.inflight[chatID] = true
	return true
}

func (o *Orchestrator) endTurn(chatID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, chatID)
}
