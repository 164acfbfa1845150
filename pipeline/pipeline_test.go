package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/gateway"
	"github.com/verbano/lingua-service/session"
	"github.com/verbano/lingua-service/worker"
)

// fakeTranslator translates via a lookup table; unknown text errors.
type fakeTranslator struct {
	mu      sync.Mutex
	table   map[string]string
	failOn  string
	failErr error
	calls   []string
}

func (f *fakeTranslator) Translate(ctx context.Context, text, fromLang, toLang string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.failOn != "" && text == f.failOn {
		return "", f.failErr
	}
	out, ok := f.table[text]
	if !ok {
		return "", errors.New("no translation for " + text)
	}
	return out, nil
}

// fakeCompleter records the window it was handed and returns a fixed reply.
type fakeCompleter struct {
	mu     sync.Mutex
	window []chat.ContextMessage
	reply  string
	err    error
	gate   chan struct{} // when set, Complete blocks until the gate closes
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []chat.ContextMessage, language string) (string, error) {
	f.mu.Lock()
	f.window = append([]chat.ContextMessage(nil), messages...)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	return f.reply, f.err
}

// fakeConvStore is an in-memory ConversationStore.
type fakeConvStore struct {
	mu        sync.Mutex
	messages  map[string][]chat.Message
	appendErr error
	deleteErr error
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{messages: make(map[string][]chat.Message)}
}

func (f *fakeConvStore) CreateChat(ctx context.Context, name, language, translatedLanguage string) (string, error) {
	return "generated-id", nil
}

func (f *fakeConvStore) AppendMessage(ctx context.Context, chatID string, m chat.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.messages[chatID] = append(f.messages[chatID], m)
	return nil
}

func (f *fakeConvStore) LoadChats(ctx context.Context) ([]*chat.Chat, error) { return nil, nil }

func (f *fakeConvStore) DeleteChat(ctx context.Context, chatID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.messages, chatID)
	return nil
}

func (f *fakeConvStore) Ping(ctx context.Context) error { return nil }
func (f *fakeConvStore) Close() error                   { return nil }

func (f *fakeConvStore) stored(chatID string) []chat.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chat.Message(nil), f.messages[chatID]...)
}

type fixture struct {
	orch       *Orchestrator
	chats      *chat.Store
	convStore  *fakeConvStore
	translator *fakeTranslator
	completer  *fakeCompleter
	settings   *session.Settings
}

func newFixture(t *testing.T, pool *worker.Pool, play worker.PlaybackFunc) *fixture {
	t.Helper()
	f := &fixture{
		chats:     chat.NewStore(),
		convStore: newFakeConvStore(),
		translator: &fakeTranslator{table: map[string]string{
			"Hello":     "Hola",
			"Hi there!": "¡Hola!",
		}},
		completer: &fakeCompleter{reply: "Hi there!"},
		settings:  session.NewSettings(false, "English"),
	}
	f.orch = New(f.chats, f.convStore, f.translator, f.completer, pool, play, f.settings)
	f.orch.archive = nil

	c := &chat.Chat{ID: "c1", Name: "Practice", Language: "English", TranslatedLanguage: "Spanish"}
	c.SeedContext()
	f.chats.Put(c)
	require.NoError(t, f.chats.Select("c1"))
	return f
}

func TestSubmitUserTurn_FullTurn(t *testing.T) {
	f := newFixture(t, nil, nil)

	require.NoError(t, f.orch.SubmitUserTurn(context.Background(), "c1", "  Hello  "))

	c, err := f.chats.Get("c1")
	require.NoError(t, err)
	require.Len(t, c.Messages, 2)

	assert.Equal(t, chat.Message{ID: "1", Role: chat.RoleUser, Content: "Hello", Translated: "Hola"}, c.Messages[0])
	assert.Equal(t, chat.Message{ID: "2", Role: chat.RoleAssistant, Content: "Hi there!", Translated: "¡Hola!"}, c.Messages[1])

	// The reply was generated from the window as it stood after the user's
	// message landed, translations excluded.
	assert.Equal(t, []chat.ContextMessage{
		{Role: chat.RoleSystem, Content: ""},
		{Role: chat.RoleUser, Content: "Hello"},
	}, f.completer.window)

	assert.Equal(t, c.Messages, f.convStore.stored("c1"))
}

func TestSubmitUserTurn_EmptyTextRejected(t *testing.T) {
	f := newFixture(t, nil, nil)

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "   ")

	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInputInvalid, kind)
	c, _ := f.chats.Get("c1")
	assert.Empty(t, c.Messages)
}

func TestSubmitUserTurn_UserTranslationFailureAppendsNothing(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.translator.failOn = "Hello"
	f.translator.failErr = errors.New("translator unreachable")

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")

	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindGatewayFailure, kind)

	// Step 2 failed: the caller keeps the draft, nothing is stored anywhere.
	c, _ := f.chats.Get("c1")
	assert.Empty(t, c.Messages)
	assert.Empty(t, f.convStore.stored("c1"))
	window, _ := f.chats.Window("c1")
	assert.Len(t, window, 1)
}

func TestSubmitUserTurn_PersistenceFailureLeavesMemoryUntouched(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.convStore.appendErr = errors.New("store down")

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")

	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindPersistenceFailure, kind)
	c, _ := f.chats.Get("c1")
	assert.Empty(t, c.Messages)
}

func TestSubmitUserTurn_CompletionFailureKeepsUserMessage(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.completer.err = errors.New("model overloaded")

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")

	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindGatewayFailure, kind)

	// The user's message survived the failed reply; no rollback.
	c, _ := f.chats.Get("c1")
	require.Len(t, c.Messages, 1)
	assert.Equal(t, chat.RoleUser, c.Messages[0].Role)
	assert.Len(t, f.convStore.stored("c1"), 1)
}

func TestSubmitUserTurn_SessionExpiryIsPromoted(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.translator.failOn = "Hello"
	f.translator.failErr = gateway.ErrSessionExpired

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")

	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindSessionExpired, kind)
}

func TestSubmitUserTurn_SecondTurnRejectedWhileInFlight(t *testing.T) {
	f := newFixture(t, nil, nil)
	gate := make(chan struct{})
	f.completer.gate = gate

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")
	}()

	// Wait until the first turn is inside the completer.
	require.Eventually(t, func() bool {
		f.completer.mu.Lock()
		defer f.completer.mu.Unlock()
		return f.completer.window != nil
	}, time.Second, 5*time.Millisecond)

	err := f.orch.SubmitUserTurn(context.Background(), "c1", "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTurnInFlight)

	close(gate)
	require.NoError(t, <-firstDone)

	// The rejected turn left no duplicate messages behind.
	c, _ := f.chats.Get("c1")
	require.Len(t, c.Messages, 2)
	assert.Equal(t, "2", c.Messages[1].ID)
}

func TestSubmitUserTurn_AutoPlaySpeaksReplyOffTurn(t *testing.T) {
	played := make(chan string, 1)
	play := func(ctx context.Context, messageID, text string) error {
		played <- messageID
		return nil
	}
	pool := worker.New(1, 4)
	pool.Start()
	defer pool.Stop()

	f := newFixture(t, pool, play)
	f.settings.SetAutoPlay(true)

	require.NoError(t, f.orch.SubmitUserTurn(context.Background(), "c1", "Hello"))

	select {
	case id := <-played:
		assert.Equal(t, "2", id)
	case <-time.After(time.Second):
		t.Fatal("autoplay never reached the playback worker")
	}
}

func TestSubmitUserTurn_AutoPlayFailureDoesNotFailTurn(t *testing.T) {
	played := make(chan struct{}, 1)
	play := func(ctx context.Context, messageID, text string) error {
		played <- struct{}{}
		return errors.New("synthesis failed")
	}
	pool := worker.New(1, 4)
	pool.Start()
	defer pool.Stop()

	f := newFixture(t, pool, play)
	f.settings.SetAutoPlay(true)

	require.NoError(t, f.orch.SubmitUserTurn(context.Background(), "c1", "Hello"))

	select {
	case <-played:
	case <-time.After(time.Second):
		t.Fatal("autoplay never ran")
	}
	c, _ := f.chats.Get("c1")
	assert.Len(t, c.Messages, 2)
}

func TestRequestPlayback(t *testing.T) {
	played := make(chan string, 1)
	play := func(ctx context.Context, messageID, text string) error {
		played <- text
		return nil
	}
	pool := worker.New(1, 4)
	pool.Start()
	defer pool.Stop()

	f := newFixture(t, pool, play)
	require.NoError(t, f.orch.SubmitUserTurn(context.Background(), "c1", "Hello"))

	require.NoError(t, f.orch.RequestPlayback("c1", "2"))
	select {
	case text := <-played:
		assert.Equal(t, "Hi there!", text)
	case <-time.After(time.Second):
		t.Fatal("playback job never ran")
	}

	err := f.orch.RequestPlayback("c1", "99")
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindInputInvalid, kind)
}

func TestCreateChat_SeedsAndSelects(t *testing.T) {
	f := newFixture(t, nil, nil)

	c, err := f.orch.CreateChat(context.Background(), "New chat", "English", "French")

	require.NoError(t, err)
	assert.Equal(t, "generated-id", c.ID)
	require.Len(t, c.Context, 1)
	assert.Equal(t, chat.RoleSystem, c.Context[0].Role)

	active := f.chats.Active()
	require.NotNil(t, active)
	assert.Equal(t, "generated-id", active.ID)
}

func TestDeleteChat_StoreRejectionKeepsChat(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.convStore.deleteErr = errors.New("store down")

	err := f.orch.DeleteChat(context.Background(), "c1")

	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindPersistenceFailure, kind)
	_, getErr := f.chats.Get("c1")
	assert.NoError(t, getErr)
}
