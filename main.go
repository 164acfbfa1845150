package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verbano/lingua-service/di"
	"github.com/verbano/lingua-service/endpoints"
	"github.com/verbano/lingua-service/interfaces"
	logger "github.com/verbano/lingua-service/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Build the dependency container (config, store, gateways, audio).
	container, err := di.NewContainer(ctx)
	if err != nil {
		logger.Fatal("building service container", err)
	}
	defer container.Close()

	// 2. Load persisted chats into memory.
	if err := container.Orchestrator.LoadChats(ctx); err != nil {
		logger.Error("loading persisted chats", err)
	}

	// 3. Surface global signals.
	container.Bus.SubscribeSessionExpired(func() {
		logger.Printf("session expired: clients must re-authenticate")
	})
	container.Bus.SubscribePlayback(func(holderID string) {
		if holderID != "" {
			logger.Printf("playback slot held by message %s", holderID)
		}
	})

	// 4. Wire the HTTP surface.
	var transcriber interfaces.Transcriber
	if container.Transcriber != nil {
		transcriber = container.Transcriber
	}
	api := &endpoints.API{
		Orchestrator:   container.Orchestrator,
		Player:         container.Player,
		Transcriber:    transcriber,
		Audio:          container.Config.Audio,
		Settings:       container.Settings,
		Bus:            container.Bus,
		Store:          container.Store,
		GatewayBaseURL: container.Config.Gateway.BaseURL,
	}
	mux := http.NewServeMux()
	api.Register(mux)

	server := &http.Server{
		Addr:    container.Config.Server.Addr,
		Handler: mux,
	}

	go func() {
		logger.Printf("lingua-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", err)
		}
	}()

	// 5. Wait for shutdown signal.
	fmt.Println("Service is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down http server", err)
	}
	fmt.Println("\nService shutting down.")
}
