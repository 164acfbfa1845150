// Package session holds explicit per-session state that would otherwise
// hide inside presentation code.
package session

import "sync"

// Settings carries the user's session preferences into the orchestrator and
// the playback path.
type Settings struct {
	mu       sync.RWMutex
	autoPlay bool
	language string
}

// NewSettings creates session settings with the given defaults.
func NewSettings(autoPlay bool, defaultLanguage string) *Settings {
	return &Settings{autoPlay: autoPlay, language: defaultLanguage}
}

// AutoPlay reports whether assistant replies are spoken automatically.
func (s *Settings) AutoPlay() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoPlay
}

// SetAutoPlay toggles automatic playback of assistant replies.
func (s *Settings) SetAutoPlay(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPlay = v
}

// DefaultLanguage is the language offered when creating a chat.
func (s *Settings) DefaultLanguage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}
