// Package di provides a dependency injection container for the application.
package di

import (
	"context"
	"fmt"

	"github.com/verbano/lingua-service/audio"
	"github.com/verbano/lingua-service/cache"
	"github.com/verbano/lingua-service/chat"
	"github.com/verbano/lingua-service/config"
	"github.com/verbano/lingua-service/events"
	"github.com/verbano/lingua-service/gateway"
	"github.com/verbano/lingua-service/llm"
	logger "github.com/verbano/lingua-service/log"
	"github.com/verbano/lingua-service/pipeline"
	"github.com/verbano/lingua-service/session"
	"github.com/verbano/lingua-service/stt"
	"github.com/verbano/lingua-service/translate"
	"github.com/verbano/lingua-service/tts"
	"github.com/verbano/lingua-service/worker"
)

// Container holds all the dependencies for the application.
type Container struct {
	Config       *config.AllConfig
	Bus          *events.Bus
	Store        *cache.DB
	Translator   *translate.Gateway
	Completer    *llm.Gateway
	Synthesizer  *tts.Gateway
	Transcriber  *stt.STT
	Arbiter      *audio.Arbiter
	Sink         *audio.TrackSink
	Player       *audio.Player
	Pool         *worker.Pool
	Settings     *session.Settings
	Orchestrator *pipeline.Orchestrator
}

// NewContainer creates a new dependency injection container.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadAllConfigs()
	if err != nil {
		return nil, fmt.Errorf("fatal error loading config: %w", err)
	}

	if err := logger.InitDiscordMirror(cfg.Discord.Token, cfg.Discord.LogChannelID); err != nil {
		// Console-only logging is fine; the mirror is a convenience.
		logger.Error("initializing discord log mirror", err)
	}

	bus := events.NewBus()

	db, err := cache.New(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize conversation store: %w", err)
	}

	api := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.BearerToken, bus)
	translator := translate.New(api)
	completer := llm.New(api)
	synthesizer := tts.New(api)

	transcriber, err := stt.New(ctx, cfg.Audio.SampleRate, "")
	if err != nil {
		logger.Error("failed to initialize transcription client", err)
	}

	arbiter := audio.NewArbiter(bus)
	sink, err := audio.NewTrackSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create playback sink: %w", err)
	}
	player := audio.NewPlayer(arbiter, synthesizer, sink)

	pool := worker.New(2, 16)
	pool.Start()

	settings := session.NewSettings(cfg.Session.AutoPlay, cfg.Session.DefaultLanguage)

	orchestrator := pipeline.New(chat.NewStore(), db, translator, completer, pool, player.Play, settings)

	return &Container{
		Config:       cfg,
		Bus:          bus,
		Store:        db,
		Translator:   translator,
		Completer:    completer,
		Synthesizer:  synthesizer,
		Transcriber:  transcriber,
		Arbiter:      arbiter,
		Sink:         sink,
		Player:       player,
		Pool:         pool,
		Settings:     settings,
		Orchestrator: orchestrator,
	}, nil
}

// Close releases the container's long-lived resources.
func (c *Container) Close() {
	c.Pool.Stop()
	if c.Transcriber != nil {
		c.Transcriber.Close()
	}
	if err := c.Store.Close(); err != nil {
		logger.Error("closing conversation store", err)
	}
	logger.CloseDiscordMirror()
}
