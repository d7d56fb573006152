package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	jwhttp "jabberwocky238/houselist/http"
	"jabberwocky238/houselist/listing"
	"jabberwocky238/houselist/storage"
)

const version = "houselist v1.0.0"

func main() {
	// Parse command
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "healthcheck":
			os.Exit(0)
		case "serve":
			// Continue to serve
		case "version":
			fmt.Println(version)
			return
		default:
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			fmt.Println("Available commands: serve, healthcheck, version")
			os.Exit(1)
		}
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	config, err := loadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.Log, os.Stdout)
	if err != nil {
		slog.Error("Failed to set up logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	if err := validateConfig(config); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(config); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(config *Config) error {
	slog.Info("Starting houselist server", "storage", config.Storage.Type)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, config.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if c, ok := store.(storage.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				slog.Warn("Failed to close storage", "error", err)
			}
		}()
	}

	srcCfg, err := sourceConfig(config.Source)
	if err != nil {
		return err
	}
	source, err := listing.NewSource(srcCfg)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	session := listing.NewSession(ctx, store, source, config.Search)
	defer session.Close()
	session.Start(ctx)

	authToken := ""
	if config.HTTP.Auth.Enabled {
		authToken = os.Getenv(config.HTTP.Auth.TokenEnv)
	}
	httpSrv := jwhttp.NewServer(jwhttp.ServerConfig{
		Listen:    config.HTTP.Listen,
		AuthToken: authToken,
	}, session)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Start()
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		slog.Info("Shutting down server...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	httpSrv.Shutdown()
	if err := session.Flush(context.Background()); err != nil {
		slog.Warn("Search term not persisted", "error", err)
	}
	slog.Info("Server stopped")
	return nil
}
