package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/verbano/lingua-service/chat"
)

// CreateChatRequest is the body for POST /chats.
type CreateChatRequest struct {
	Name               string `json:"name"`
	Language           string `json:"language"`
	TranslatedLanguage string `json:"translated_language"`
}

// CreateChat creates and selects a new chat.
func (a *API) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Name == "" || req.Language == "" || req.TranslatedLanguage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, language and translated_language are required"})
		return
	}

	c, err := a.Orchestrator.CreateChat(r.Context(), req.Name, req.Language, req.TranslatedLanguage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// ListChats returns all chats and the active selection.
func (a *API) ListChats(w http.ResponseWriter, r *http.Request) {
	chats := a.Orchestrator.Chats().List()
	active := a.Orchestrator.Chats().Active()
	activeID := ""
	if active != nil {
		activeID = active.ID
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chats":  chats,
		"active": activeID,
	})
}

// DeleteChat removes a chat. The response reports the new active chat id,
// empty when no chats remain.
func (a *API) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")
	if err := a.Orchestrator.DeleteChat(r.Context(), chatID); err != nil {
		writeError(w, err)
		return
	}
	activeID := ""
	if active := a.Orchestrator.Chats().Active(); active != nil {
		activeID = active.ID
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": activeID})
}

// OpenChat selects a chat and returns it with a freshly rebuilt context
// window.
func (a *API) OpenChat(w http.ResponseWriter, r *http.Request) {
	c, err := a.Orchestrator.OpenChat(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// TurnRequest is the body for POST /chats/{id}/turns.
type TurnRequest struct {
	Text string `json:"text"`
}

// TurnResponse returns the two messages a successful turn appended.
type TurnResponse struct {
	Messages []chat.Message `json:"messages"`
}

// SubmitTurn runs the full turn pipeline for the chat. On failure the client
// keeps the draft; on success the appended user and assistant messages are
// returned and the draft can be cleared.
func (a *API) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := a.Orchestrator.SubmitUserTurn(r.Context(), chatID, req.Text); err != nil {
		writeError(w, err)
		return
	}

	messages, err := a.Orchestrator.Chats().LastMessages(chatID, 2)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TurnResponse{Messages: messages})
}

// PlayMessage queues spoken playback of one message.
func (a *API) PlayMessage(w http.ResponseWriter, r *http.Request) {
	chatID := r.PathValue("id")
	messageID := r.PathValue("mid")
	if err := a.Orchestrator.RequestPlayback(chatID, messageID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// StopPlayback interrupts the current playback, if any.
func (a *API) StopPlayback(w http.ResponseWriter, r *http.Request) {
	if a.Player != nil {
		a.Player.Stop()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
