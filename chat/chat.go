// Package chat holds the in-memory mirror of persisted conversations.
package chat

import (
	"fmt"
	"strconv"
	"sync"
)

// Role values used by messages and context entries.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one persisted, displayable turn entry. Messages are immutable
// once created; corrections are modeled as new messages.
type Message struct {
	ID         string `json:"id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	Translated string `json:"translated"`
}

// ContextMessage is one entry of the completion context window. It carries
// only role and content: the assistant must reason in the chat's original
// language, so translated text never enters the context window. A Message is
// reduced to a ContextMessage by dropping ID and Translated, nothing else.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat is a named conversation with a fixed language pair.
type Chat struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Language           string    `json:"language"`
	TranslatedLanguage string    `json:"translated_language"`
	Messages           []Message `json:"messages"`

	// Context is the window sent to the completion gateway. Seeded with a
	// single empty system entry when the chat is opened.
	Context []ContextMessage `json:"-"`
}

// SeedContext resets the context window to the initial placeholder system
// entry followed by the chat's existing messages in order.
func (c *Chat) SeedContext() {
	c.Context = make([]ContextMessage, 0, len(c.Messages)+1)
	c.Context = append(c.Context, ContextMessage{Role: RoleSystem, Content: ""})
	for _, m := range c.Messages {
		c.Context = append(c.Context, ContextMessage{Role: m.Role, Content: m.Content})
	}
}

// NextID returns the id the next appended message will receive. Ids are
// 1-based stringified sequence numbers reflecting append order.
func (c *Chat) NextID() string {
	return strconv.Itoa(len(c.Messages) + 1)
}

// clone returns a deep copy of the chat so callers can read it without
// holding the store lock.
func (c *Chat) clone() *Chat {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	out.Context = append([]ContextMessage(nil), c.Context...)
	return &out
}

// Store is the in-memory chat registry the orchestrator mutates and the
// presentation layer observes. All methods are safe for concurrent use: live
// chat state never crosses the lock boundary, readers get snapshots.
type Store struct {
	mu       sync.RWMutex
	chats    map[string]*Chat
	order    []string // chat ids in insertion order, for deterministic re-selection
	activeID string
}

// NewStore creates an empty chat store with no chat selected.
func NewStore() *Store {
	return &Store{chats: make(map[string]*Chat)}
}

// Put registers a copy of the chat. The first chat added becomes the active
// chat. Later mutations of the caller's value do not reach the store.
func (s *Store) Put(c *Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.chats[c.ID]; !exists {
		s.order = append(s.order, c.ID)
	}
	s.chats[c.ID] = c.clone()
	if s.activeID == "" {
		s.activeID = c.ID
	}
}

// Get returns a snapshot of the chat with the given id.
func (s *Store) Get(id string) (*Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("no such chat: %s", id)
	}
	return c.clone(), nil
}

// NextID returns the id the next message appended to the chat will receive.
func (s *Store) NextID(chatID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return "", fmt.Errorf("no such chat: %s", chatID)
	}
	return c.NextID(), nil
}

// FindMessage returns the chat's message with the given id.
func (s *Store) FindMessage(chatID, messageID string) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return Message{}, fmt.Errorf("no such chat: %s", chatID)
	}
	for _, m := range c.Messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return Message{}, fmt.Errorf("no such message: %s", messageID)
}

// Append adds a message to the chat and mirrors it into the context window.
// The message id must have been assigned with NextID.
func (s *Store) Append(chatID string, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return fmt.Errorf("no such chat: %s", chatID)
	}
	c.Messages = append(c.Messages, m)
	c.Context = append(c.Context, ContextMessage{Role: m.Role, Content: m.Content})
	return nil
}

// Window returns a snapshot of the chat's context window, safe to hand to
// the completion gateway while other goroutines append.
func (s *Store) Window(chatID string) ([]ContextMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("no such chat: %s", chatID)
	}
	window := make([]ContextMessage, len(c.Context))
	copy(window, c.Context)
	return window, nil
}

// LastMessages returns a copy of up to n of the chat's most recent messages.
func (s *Store) LastMessages(chatID string, n int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("no such chat: %s", chatID)
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	out := make([]Message, n)
	copy(out, c.Messages[len(c.Messages)-n:])
	return out, nil
}

// Delete removes a chat. If it was the active chat, selection moves to
// another surviving chat, or to "no chat selected" when none remain.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return
	}
	delete(s.chats, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
		if len(s.order) > 0 {
			s.activeID = s.order[0]
		}
	}
}

// Open re-seeds the chat's context window from its persisted messages and
// makes it the active chat.
func (s *Store) Open(id string) (*Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, fmt.Errorf("no such chat: %s", id)
	}
	c.SeedContext()
	s.activeID = id
	return c.clone(), nil
}

// Select makes the given chat the active one.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return fmt.Errorf("no such chat: %s", id)
	}
	s.activeID = id
	return nil
}

// Active returns a snapshot of the currently selected chat, or nil when none
// is selected.
func (s *Store) Active() *Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return nil
	}
	return s.chats[s.activeID].clone()
}

// List returns snapshots of all chats in insertion order.
func (s *Store) List() []*Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chats[id].clone())
	}
	return out
}
