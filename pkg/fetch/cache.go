package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Cache stores fetched documents by URL. Get reports a miss with ok false and
// a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}

// Cached is a read-through cache in front of a Source. Cache failures are
// logged and the origin is used instead; they never fail a fetch.
type Cached struct {
	origin Source
	cache  Cache
	logger *slog.Logger
}

func NewCached(origin Source, cache Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{origin: origin, cache: cache, logger: logger}
}

func (c *Cached) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	data, ok, err := c.cache.Get(ctx, url)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "payload cache read failed", "url", url, "error", err)
	case ok && json.Valid(data):
		c.logger.DebugContext(ctx, "payload cache hit", "url", url)
		return json.RawMessage(data), nil
	}

	raw, err := c.origin.FetchJSON(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, url, raw); err != nil {
		c.logger.WarnContext(ctx, "payload cache write failed", "url", url, "error", err)
	}
	return raw, nil
}
