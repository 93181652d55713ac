// Command scene builds one trek scene from configuration and writes the scene
// document to stdout, or to the MinIO bucket when one is configured.
package main

import (
	"context"
	"log/slog"
	"os"

	"rando/internal/app"
	"rando/internal/config"
	"rando/internal/env"
	"rando/internal/keys"
	"rando/internal/logging"
	"rando/internal/models"
	"rando/internal/scene"
	"rando/pkg/graceful"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := env.LoadEnv(); err != nil {
		slog.Error("load .env", "error", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		return 1
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	req := models.BuildRequest{
		ID:         cfg.Scene.BuildID,
		Version:    cfg.Scene.Version,
		DemURL:     cfg.Scene.DemURL,
		ProfileURL: cfg.Scene.ProfileURL,
		PoiURL:     cfg.Scene.PoiURL,
		Demo:       cfg.Scene.Demo,
	}
	if req.ID == "" {
		req.ID = "scene"
	}
	opts, err := scene.OptionsFromRequest(req)
	if err != nil {
		logger.Error("invalid scene configuration", "error", err)
		return 1
	}

	sources, err := app.NewSources(ctx, cfg, logger)
	if err != nil {
		logger.Error("set up sources", "error", err)
		return 1
	}
	defer sources.Close()

	doc, err := app.BuildDocument(ctx, opts, sources.Fetcher, cfg.Render, scene.LogObserver(logger))
	if err != nil {
		logger.Error("scene build failed", "build_id", req.ID, "kind", models.ErrorKind(err), "error", err)
		return 1
	}

	if sources.Store != nil && cfg.Minio.Enabled() {
		key := keys.Scene(req)
		if err := doc.Save(ctx, sources.Store, key); err != nil {
			logger.Error("save scene document", "key", key, "error", err)
			return 1
		}
		return 0
	}
	if _, err := doc.WriteTo(os.Stdout); err != nil {
		logger.Error("write scene document", "error", err)
		return 1
	}
	return 0
}
