// Package cache implements the durable conversation store on redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/config"
)

const keyPrefix = "lingua-service:"

// DB is the redis-backed conversation store.
type DB struct {
	rdb *redis.Client
}

// New connects to redis and verifies the connection.
func New(cfg *config.RedisConfig) (*DB, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("no redis address configured")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to store at %s: %w", cfg.Addr, err)
	}
	return &DB{rdb: rdb}, nil
}

// Ping verifies the store connection.
func (db *DB) Ping(ctx context.Context) error {
	return db.rdb.Ping(ctx).Err()
}

// Close releases the redis connection.
func (db *DB) Close() error {
	return db.rdb.Close()
}

func chatsKey() string {
	return keyPrefix + "chats"
}

func messagesKey(chatID string) string {
	return fmt.Sprintf("%schat:%s:messages", keyPrefix, chatID)
}

// chatRecord is the persisted shape of a chat minus its messages, which live
// in their own ordered list.
type chatRecord struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Language           string `json:"language"`
	TranslatedLanguage string `json:"translated_language"`
}

// CreateChat persists a new chat and returns its generated id.
func (db *DB) CreateChat(ctx context.Context, name, language, translatedLanguage string) (string, error) {
	id := uuid.NewString()
	record, err := json.Marshal(chatRecord{
		ID:                 id,
		Name:               name,
		Language:           language,
		TranslatedLanguage: translatedLanguage,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal chat record: %w", err)
	}
	if err := db.rdb.HSet(ctx, chatsKey(), id, record).Err(); err != nil {
		return "", fmt.Errorf("could not persist chat %s: %w", id, err)
	}
	return id, nil
}

// AppendMessage persists a message at the end of the chat's ordered list.
func (db *DB) AppendMessage(ctx context.Context, chatID string, m chat.Message) error {
	jsonMsg, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("could not marshal message %s: %w", m.ID, err)
	}
	exists, err := db.rdb.HExists(ctx, chatsKey(), chatID).Result()
	if err != nil {
		return fmt.Errorf("could not check chat %s: %w", chatID, err)
	}
	if !exists {
		return fmt.Errorf("no such chat: %s", chatID)
	}
	if err := db.rdb.RPush(ctx, messagesKey(chatID), jsonMsg).Err(); err != nil {
		return fmt.Errorf("could not persist message %s in chat %s: %w", m.ID, chatID, err)
	}
	return nil
}

// LoadChats returns all persisted chats with their messages in append order.
func (db *DB) LoadChats(ctx context.Context) ([]*chat.Chat, error) {
	records, err := db.rdb.HGetAll(ctx, chatsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("could not load chats: %w", err)
	}

	chats := make([]*chat.Chat, 0, len(records))
	for id, raw := range records {
		var record chatRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("could not parse chat record %s: %w", id, err)
		}

		rawMessages, err := db.rdb.LRange(ctx, messagesKey(id), 0, -1).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("could not load messages for chat %s: %w", id, err)
		}
		messages := make([]chat.Message, 0, len(rawMessages))
		for _, rawMsg := range rawMessages {
			var m chat.Message
			if err := json.Unmarshal([]byte(rawMsg), &m); err != nil {
				return nil, fmt.Errorf("could not parse message in chat %s: %w", id, err)
			}
			messages = append(messages, m)
		}

		chats = append(chats, &chat.Chat{
			ID:                 record.ID,
			Name:               record.Name,
			Language:           record.Language,
			TranslatedLanguage: record.TranslatedLanguage,
			Messages:           messages,
		})
	}
	return chats, nil
}

// DeleteChat removes a chat and its message list.
func (db *DB) DeleteChat(ctx context.Context, chatID string) error {
	pipe := db.rdb.Pipeline()
	pipe.HDel(ctx, chatsKey(), chatID)
	pipe.Del(ctx, messagesKey(chatID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("could not delete chat %s: %w", chatID, err)
	}
	return nil
}
