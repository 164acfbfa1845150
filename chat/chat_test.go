package chat

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChat(id string) *Chat {
	c := &Chat{
		ID:                 id,
		Name:               "Practice",
		Language:           "English",
		TranslatedLanguage: "Spanish",
	}
	c.SeedContext()
	return c
}

func TestAppend_IDsAreContiguousAndOrdered(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))

	for i := 0; i < 5; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		id, err := s.NextID("c1")
		require.NoError(t, err)
		require.NoError(t, s.Append("c1", Message{ID: id, Role: role, Content: fmt.Sprintf("msg %d", i)}))
	}

	c, err := s.Get("c1")
	require.NoError(t, err)
	require.Len(t, c.Messages, 5)
	for i, m := range c.Messages {
		assert.Equal(t, fmt.Sprintf("%d", i+1), m.ID)
	}
}

func TestSeedContext_StartsWithSystemPlaceholder(t *testing.T) {
	c := newTestChat("c1")

	require.Len(t, c.Context, 1)
	assert.Equal(t, RoleSystem, c.Context[0].Role)
	assert.Equal(t, "", c.Context[0].Content)
}

func TestSeedContext_RebuildsFromMessagesWithoutTranslations(t *testing.T) {
	c := newTestChat("c1")
	c.Messages = []Message{
		{ID: "1", Role: RoleUser, Content: "Hello", Translated: "Hola"},
		{ID: "2", Role: RoleAssistant, Content: "Hi there!", Translated: "¡Hola!"},
	}
	c.SeedContext()

	require.Len(t, c.Context, 3)
	assert.Equal(t, ContextMessage{Role: RoleSystem, Content: ""}, c.Context[0])
	assert.Equal(t, ContextMessage{Role: RoleUser, Content: "Hello"}, c.Context[1])
	assert.Equal(t, ContextMessage{Role: RoleAssistant, Content: "Hi there!"}, c.Context[2])
}

func TestAppend_MirrorsIntoContextWindow(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))

	id, err := s.NextID("c1")
	require.NoError(t, err)
	require.NoError(t, s.Append("c1", Message{ID: id, Role: RoleUser, Content: "Hello", Translated: "Hola"}))

	window, err := s.Window("c1")
	require.NoError(t, err)
	require.Len(t, window, 2)
	// The context window never carries translated text.
	assert.Equal(t, ContextMessage{Role: RoleUser, Content: "Hello"}, window[1])
}

func TestGet_ReturnsIsolatedSnapshot(t *testing.T) {
	s := NewStore()
	original := newTestChat("c1")
	s.Put(original)

	// Mutating the value handed to Put must not reach the store.
	original.Messages = append(original.Messages, Message{ID: "1", Role: RoleUser, Content: "leaked"})

	got, err := s.Get("c1")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)

	// Nor must mutating a returned snapshot.
	got.Context[0].Content = "changed"
	again, err := s.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "", again.Context[0].Content)
}

func TestList_SafeWhileAppending(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			id, err := s.NextID("c1")
			if err != nil {
				return
			}
			_ = s.Append("c1", Message{ID: id, Role: RoleUser, Content: "msg", Translated: "mensaje"})
		}
	}()

	// Encoding the listing concurrently with appends must never observe a
	// chat mid-mutation.
	for i := 0; i < 200; i++ {
		_, err := json.Marshal(s.List())
		require.NoError(t, err)
	}
	<-done

	c, err := s.Get("c1")
	require.NoError(t, err)
	assert.Len(t, c.Messages, 200)
}

func TestFindMessage(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))
	require.NoError(t, s.Append("c1", Message{ID: "1", Role: RoleUser, Content: "Hello"}))

	m, err := s.FindMessage("c1", "1")
	require.NoError(t, err)
	assert.Equal(t, "Hello", m.Content)

	_, err = s.FindMessage("c1", "2")
	assert.Error(t, err)
	_, err = s.FindMessage("missing", "1")
	assert.Error(t, err)
}

func TestOpen_ReseedsWindowAndSelects(t *testing.T) {
	s := NewStore()
	c := newTestChat("c1")
	s.Put(c)
	s.Put(newTestChat("c2"))
	require.NoError(t, s.Select("c2"))

	require.NoError(t, s.Append("c1", Message{ID: "1", Role: RoleUser, Content: "Hello", Translated: "Hola"}))

	opened, err := s.Open("c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", s.Active().ID)
	require.Len(t, opened.Context, 2)
	assert.Equal(t, ContextMessage{Role: RoleSystem, Content: ""}, opened.Context[0])
	assert.Equal(t, ContextMessage{Role: RoleUser, Content: "Hello"}, opened.Context[1])
}

func TestLastMessages_CopiesTail(t *testing.T) {
	s := NewStore()
	c := newTestChat("c1")
	s.Put(c)
	require.NoError(t, s.Append("c1", Message{ID: "1", Role: RoleUser, Content: "Hello"}))

	tail, err := s.LastMessages("c1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "Hello", tail[0].Content)

	_, err = s.LastMessages("missing", 2)
	assert.Error(t, err)
}

func TestDelete_ActiveChatMovesToSurvivor(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))
	s.Put(newTestChat("c2"))
	require.NoError(t, s.Select("c1"))

	s.Delete("c1")

	active := s.Active()
	require.NotNil(t, active)
	assert.Equal(t, "c2", active.ID)
}

func TestDelete_LastChatLeavesNoSelection(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))
	require.NotNil(t, s.Active())

	s.Delete("c1")

	assert.Nil(t, s.Active())
	assert.Empty(t, s.List())
}

func TestDelete_InactiveChatKeepsSelection(t *testing.T) {
	s := NewStore()
	s.Put(newTestChat("c1"))
	s.Put(newTestChat("c2"))
	require.NoError(t, s.Select("c2"))

	s.Delete("c1")

	active := s.Active()
	require.NotNil(t, active)
	assert.Equal(t, "c2", active.ID)
}
