// Package app wires configuration into the collaborators a scene build needs.
// It is shared by the one-shot cmd/scene and the cmd/scened worker.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"rando/internal/config"
	"rando/internal/render"
	"rando/internal/scene"
	"rando/internal/storage"
	"rando/pkg/fetch"
)

// Sources is the fetch side of a build: HTTP, the optional object store and
// the optional payload cache.
type Sources struct {
	Fetcher scene.Fetcher
	// Store is nil when MinIO is not configured.
	Store *storage.S3Service
	cache *storage.PayloadCache
}

// NewSources builds the fetcher chain described by cfg.
func NewSources(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sources, error) {
	s := &Sources{}
	router := &fetch.Router{HTTP: fetch.NewClient(cfg.Fetch.UserAgent, cfg.Fetch.Timeout)}

	if cfg.Minio.Endpoint != "" {
		store, err := storage.NewS3Service(cfg.Minio, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Minio.Bucket != "" {
			if _, err := store.CreateBucket(ctx, cfg.Minio.Bucket, cfg.Minio.Region); err != nil {
				return nil, fmt.Errorf("prepare bucket %s: %w", cfg.Minio.Bucket, err)
			}
		}
		router.Objects = store
		s.Store = store
	}

	s.Fetcher = router
	if cfg.Valkey.Addr != "" {
		cache, err := storage.NewPayloadCache(cfg.Valkey.Addr, cfg.Valkey.TTL)
		if err != nil {
			return nil, err
		}
		s.cache = cache
		s.Fetcher = fetch.NewCached(router, cache, logger)
	}
	return s, nil
}

// Close releases the cache connection.
func (s *Sources) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}

// BuildDocument runs one scene build into a fresh render.Document.
func BuildDocument(ctx context.Context, opts scene.Options, fetcher scene.Fetcher, settings render.Settings, observers ...scene.Observer) (*render.Document, error) {
	doc := render.NewDocument(opts.BuildID, settings)
	if _, err := scene.NewBuilder(opts, fetcher, doc, observers...).Build(ctx); err != nil {
		return nil, err
	}
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("render scene %s: %w", opts.BuildID, err)
	}
	return doc, nil
}
