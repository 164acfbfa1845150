package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/verbano/lingua-service/audio"
	logger "github.com/verbano/lingua-service/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The bearer credential is checked upstream; the socket itself accepts
	// any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type captureControl struct {
	Action string `json:"action"` // "start" or "stop"
}

type captureResult struct {
	Transcript string `json:"transcript,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CaptureSocket runs one capture session per connection. Text frames carry
// start/stop control messages; binary frames carry RTP L16 audio packets.
// Closing the socket tears the capture machine down, releasing the device
// and discarding in-flight results.
func (a *API) CaptureSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("upgrading capture socket", err)
		return
	}
	defer func() { _ = conn.Close() }()

	// Each recording attempt gets a fresh microphone; the capture machine
	// closes the old one when the session ends.
	var micMu sync.Mutex
	var mic *audio.RTPMicrophone
	opener := func() (audio.Microphone, error) {
		micMu.Lock()
		defer micMu.Unlock()
		mic = audio.NewRTPMicrophone()
		return mic, nil
	}

	capture := audio.NewCapture(opener, a.Transcriber, a.Bus, a.Audio.SilenceThreshold, a.Audio.SampleRate)
	defer capture.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			// Connection gone: teardown happens in the deferred Close.
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			micMu.Lock()
			m := mic
			micMu.Unlock()
			if m == nil {
				continue
			}
			if err := m.Push(data); err != nil {
				logger.Error("ingesting capture packet", err)
			}

		case websocket.TextMessage:
			var ctl captureControl
			if err := json.Unmarshal(data, &ctl); err != nil {
				a.sendCaptureResult(conn, captureResult{Error: "invalid control message"})
				continue
			}
			switch ctl.Action {
			case "start":
				if err := capture.Start(); err != nil {
					a.sendCaptureResult(conn, captureResult{Error: fmt.Sprintf("capture error: %v", err)})
				}
			case "stop":
				transcript, err := capture.Stop(r.Context())
				if err != nil {
					a.sendCaptureResult(conn, captureResult{Error: fmt.Sprintf("transcription error: %v", err)})
					continue
				}
				a.sendCaptureResult(conn, captureResult{Transcript: transcript})
			default:
				a.sendCaptureResult(conn, captureResult{Error: "unknown action"})
			}
		}
	}
}

func (a *API) sendCaptureResult(conn *websocket.Conn, result captureResult) {
	if err := conn.WriteJSON(result); err != nil {
		logger.Error("writing capture result", err)
	}
}
