// Package endpoints exposes the conversation core over HTTP and WebSocket.
package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/verbano/lingua-service/audio"
	"github.com/verbano/lingua-service/config"
	"github.com/verbano/lingua-service/events"
	"github.com/verbano/lingua-service/interfaces"
	logger "github.com/verbano/lingua-service/log"
	"github.com/verbano/lingua-service/pipeline"
	"github.com/verbano/lingua-service/session"
)

// API bundles the handlers' dependencies. Each capture socket gets its own
// capture state machine; the transcriber and audio tuning are shared.
type API struct {
	Orchestrator   *pipeline.Orchestrator
	Player         *audio.Player
	Transcriber    interfaces.Transcriber
	Audio          *config.AudioConfig
	Settings       *session.Settings
	Bus            *events.Bus
	Store          interfaces.ConversationStore
	GatewayBaseURL string
}

// Register attaches all routes to the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /chats", a.ListChats)
	mux.HandleFunc("POST /chats", a.CreateChat)
	mux.HandleFunc("DELETE /chats/{id}", a.DeleteChat)
	mux.HandleFunc("POST /chats/{id}/open", a.OpenChat)
	mux.HandleFunc("POST /chats/{id}/turns", a.SubmitTurn)
	mux.HandleFunc("POST /chats/{id}/messages/{mid}/play", a.PlayMessage)
	mux.HandleFunc("POST /playback/stop", a.StopPlayback)
	mux.HandleFunc("GET /capture", a.CaptureSocket)
	mux.HandleFunc("GET /status", a.Status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding response", err)
	}
}

// writeError maps a pipeline error kind to an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if kind, ok := pipeline.KindOf(err); ok {
		switch kind {
		case pipeline.KindInputInvalid:
			status = http.StatusBadRequest
		case pipeline.KindSessionExpired:
			status = http.StatusForbidden
		case pipeline.KindGatewayFailure, pipeline.KindPersistenceFailure:
			status = http.StatusBadGateway
		case pipeline.KindDeviceFailure:
			status = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
