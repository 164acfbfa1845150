// Package store archives chat transcripts to disk as JSON, one file per
// message. The archive is best-effort; the redis store remains the source of
// truth.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/config"
)

// SaveMessage writes a message to the chat's archive directory.
func SaveMessage(chatID string, m chat.Message) error {
	dir, err := config.ChatDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, chatID)
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	filePath := filepath.Join(path, fmt.Sprintf("%s.json", m.ID))

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filePath, data, 0644)
}

// RemoveChat deletes a chat's archive directory.
func RemoveChat(chatID string) error {
	dir, err := config.ChatDir()
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(dir, chatID))
}
