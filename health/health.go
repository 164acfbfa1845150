// Package health reports the status of the service's collaborators.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/verbano/lingua-service/interfaces"
)

// GetGatewayStatus checks the AI gateway's base URL and returns a formatted
// status string.
func GetGatewayStatus(baseURL string) string {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL)
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Sprintf("ERROR: Status: %s", resp.Status)
	}
	return "OK"
}

// GetStoreStatus checks the conversation store connection.
func GetStoreStatus(s interfaces.ConversationStore) string {
	if s == nil {
		return "ERROR: Initialization failed"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	return "OK"
}

// GetTranscriberStatus checks the transcription client.
func GetTranscriberStatus(t interfaces.Transcriber) string {
	if t == nil {
		return "ERROR: Initialization failed"
	}
	// The client has no built-in ping, so we assume it's OK if it initialized.
	return "OK"
}
