package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackchat/relay/internal/chat"
	"github.com/hackchat/relay/internal/logger"
	"github.com/hackchat/relay/internal/roomdir"
	"github.com/hackchat/relay/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Info("Starting HackChat relay...")

	config := server.NewConfigFromEnv()

	directory, cleanup := newDirectory(*config)
	defer cleanup()

	// Core wiring: the hub is the transport the router broadcasts through,
	// and every client hands its inbound events to the router.
	hub := server.NewHub()
	router := chat.NewRouter(chat.NewRegistry(), hub)
	go hub.Run()

	mux := server.SetupRoutes(hub, router, directory, *config)
	httpServer := server.CreateServer(config.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server error: %v", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Infof("Received signal %s, shutting down", sig)
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		logger.Errorf("Error during HTTP shutdown: %v", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		logger.Errorf("Error during hub shutdown: %v", err)
	}
}

// newDirectory selects the room directory backend: MongoDB when configured,
// otherwise the in-memory directory.
func newDirectory(cfg server.Config) (roomdir.Directory, func()) {
	if cfg.MongoURI == "" {
		logger.Info("MONGO_URI not set; using in-memory room directory")
		return roomdir.NewMemoryDirectory(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	directory, err := roomdir.NewMongoDirectory(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Errorf("MongoDB connection error: %v", err)
		os.Exit(1)
	}
	logger.Infof("Connected to MongoDB database %q", cfg.MongoDatabase)

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := directory.Close(ctx); err != nil {
			logger.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}
	return directory, cleanup
}
