package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"

	"fridgechef/internal/capture"
	"fridgechef/internal/config"
	"fridgechef/internal/generate"
	anthropicgen "fridgechef/internal/generate/anthropic"
	geminigen "fridgechef/internal/generate/gemini"
	"fridgechef/internal/logging"
	"fridgechef/internal/session"
	"fridgechef/internal/storage"
	filestorage "fridgechef/internal/storage/file"
	sqlitestorage "fridgechef/internal/storage/sqlite"
	"fridgechef/internal/web"
)

func main() {
	// A missing .env is fine; configuration falls back to the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	blobs, closeBlobs, err := newBlobStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		return
	}
	defer closeBlobs()

	generator, closeGen, err := newGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize generation backend", "error", err)
		return
	}
	defer closeGen()

	reconciler, err := session.New(ctx, generator, blobs, logger)
	if err != nil {
		logger.Error("failed to initialize session", "error", err)
		return
	}

	server := web.NewServer(reconciler, newCamera(cfg, logger), logger)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newBlobStore(cfg *config.Config, logger *slog.Logger) (storage.BlobStore, func(), error) {
	switch cfg.StorageBackend {
	case "sqlite":
		logger.Info("using sqlite storage", "path", cfg.DBPath)
		store, err := sqlitestorage.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	default:
		logger.Info("using file storage", "dir", cfg.DataDir)
		store, err := filestorage.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func newGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generate.Generator, func(), error) {
	switch cfg.GenerateBackend {
	case "anthropic":
		logger.Info("using Anthropic generation backend", "model", cfg.AnthropicModel)
		return anthropicgen.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), func() {}, nil
	default:
		logger.Info("using Gemini generation backend", "model", cfg.GeminiModel)
		client, err := geminigen.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Error("failed to close gemini client", "error", err)
			}
		}, nil
	}
}

func newCamera(cfg *config.Config, logger *slog.Logger) capture.DeviceProvider {
	switch cfg.CameraBackend {
	case "none":
		logger.Info("no camera backend configured; capture endpoints will report the device as unavailable")
		return capture.NoopProvider{}
	default:
		logger.Warn("unknown camera backend, falling back to none", "backend", cfg.CameraBackend)
		return capture.NoopProvider{}
	}
}
