// Package log provides the service logger: stdout always, with optional
// mirroring of error lines to a Discord ops channel.
package log

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

var (
	mu           sync.Mutex
	session      *discordgo.Session
	opsChannelID string
)

// InitDiscordMirror attaches a Discord session so error logs are mirrored to
// the configured ops channel. Safe to skip entirely; the logger then writes
// to the console only.
func InitDiscordMirror(token, channelID string) error {
	if token == "" || channelID == "" {
		return nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("could not create discord session for log mirror: %w", err)
	}
	if err := s.Open(); err != nil {
		return fmt.Errorf("could not open discord session for log mirror: %w", err)
	}
	mu.Lock()
	session = s
	opsChannelID = channelID
	mu.Unlock()
	return nil
}

// CloseDiscordMirror shuts down the mirror session, if any.
func CloseDiscordMirror() {
	mu.Lock()
	defer mu.Unlock()
	if session != nil {
		_ = session.Close()
		session = nil
	}
}

// Printf logs an informational line to the console.
func Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Error logs an error with the caller's file:line, mirroring it to the ops
// channel when one is configured.
func Error(context string, err error) {
	_, file, line, ok := runtime.Caller(1)
	callerInfo := "unknown"
	if ok {
		parts := strings.Split(file, "/")
		if len(parts) > 2 {
			file = strings.Join(parts[len(parts)-2:], "/")
		}
		callerInfo = fmt.Sprintf("%s:%d", file, line)
	}

	msg := fmt.Sprintf("[ERROR] in %s: %s\n%v", callerInfo, context, err)
	log.Print(msg)
	mirror(msg)
}

// Fatal logs an error and exits.
func Fatal(context string, err error) {
	Error(context, err)
	log.Fatalf("fatal: %s", context)
}

func mirror(msg string) {
	mu.Lock()
	s, ch := session, opsChannelID
	mu.Unlock()
	if s == nil || ch == "" {
		return
	}
	if len(msg) > 1900 {
		msg = msg[:1900] + "..."
	}
	if _, err := s.ChannelMessageSend(ch, "```\n"+msg+"```"); err != nil {
		log.Printf("could not mirror log line to discord: %v", err)
	}
}
