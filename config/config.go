// Package config loads the service configuration from JSON files in the
// user's Lingua directory, creating defaults for anything missing.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Re-assigned in tests to point the loader at a temp directory.
var osUserHomeDir = os.UserHomeDir

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// RedisConfig holds the conversation store connection settings.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// GatewayConfig holds the upstream AI gateway settings. All gateway calls
// carry the bearer token; the token itself is issued elsewhere.
type GatewayConfig struct {
	BaseURL     string `json:"base_url"`
	BearerToken string `json:"bearer_token"`
}

// AudioConfig holds capture and playback tuning.
type AudioConfig struct {
	// SilenceThreshold is the average absolute sample amplitude (fraction of
	// full scale) below which a clip is discarded without transcription.
	SilenceThreshold float64 `json:"silence_threshold"`
	SampleRate       int     `json:"sample_rate"`
}

// DiscordConfig holds the optional ops-channel log mirror settings.
type DiscordConfig struct {
	Token        string `json:"token"`
	LogChannelID string `json:"log_channel_id"`
}

// SessionConfig holds per-session defaults surfaced to the orchestrator.
type SessionConfig struct {
	AutoPlay        bool   `json:"auto_play"`
	DefaultLanguage string `json:"default_language"`
}

// AllConfig is the aggregate of every config file.
type AllConfig struct {
	Server  *ServerConfig  `json:"-"`
	Redis   *RedisConfig   `json:"-"`
	Gateway *GatewayConfig `json:"-"`
	Audio   *AudioConfig   `json:"-"`
	Discord *DiscordConfig `json:"-"`
	Session *SessionConfig `json:"-"`
}

func configDir() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, "Lingua", "config"), nil
}

// loadOrCreate reads filename into v, writing the current (default) value of
// v to disk first if the file does not exist.
func loadOrCreate(filename string, v interface{}) error {
	dir, err := configDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	path := filepath.Join(dir, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("could not marshal default config %s: %w", filename, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("could not write default config %s: %w", filename, err)
		}
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("could not decode config file %s: %w", filename, err)
	}
	return nil
}

// LoadAllConfigs loads every config file, creating defaults where missing.
func LoadAllConfigs() (*AllConfig, error) {
	server := &ServerConfig{Addr: ":9000"}
	redis := &RedisConfig{Addr: "localhost:6379"}
	gateway := &GatewayConfig{BaseURL: "http://localhost:8085/api"}
	audio := &AudioConfig{SilenceThreshold: 0.01, SampleRate: 48000}
	discord := &DiscordConfig{}
	session := &SessionConfig{AutoPlay: false, DefaultLanguage: "English"}

	if err := loadOrCreate("server.json", server); err != nil {
		return nil, err
	}
	if err := loadOrCreate("redis.json", redis); err != nil {
		return nil, err
	}
	if err := loadOrCreate("gateway.json", gateway); err != nil {
		return nil, err
	}
	if err := loadOrCreate("audio.json", audio); err != nil {
		return nil, err
	}
	if err := loadOrCreate("discord.json", discord); err != nil {
		return nil, err
	}
	if err := loadOrCreate("session.json", session); err != nil {
		return nil, err
	}

	return &AllConfig{
		Server:  server,
		Redis:   redis,
		Gateway: gateway,
		Audio:   audio,
		Discord: discord,
		Session: session,
	}, nil
}

// ChatDir returns the directory used for on-disk chat transcript archives.
func ChatDir() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, "Lingua", "chats"), nil
}
