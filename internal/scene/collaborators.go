package scene

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rando/internal/models"
)

// Fetcher retrieves one JSON document. Implementations report transport
// problems (network, status, invalid JSON) as errors and must honor ctx.
type Fetcher interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (json.RawMessage, error)

func (f FetcherFunc) FetchJSON(ctx context.Context, url string) (json.RawMessage, error) {
	return f(ctx, url)
}

// Renderer consumes the normalized scene. Ownership of every value passed in
// moves to the renderer.
type Renderer interface {
	BuildTerrain(dem *models.DemData, offset models.Offset)
	BuildTrek(trek []models.TrekPoint, offset models.Offset, animate bool)
	BuildPoiMarker(poi models.PoiEntry, offset models.Offset)
	// OnAllAssetsReady registers fn to run once every built asset is loaded.
	OnAllAssetsReady(fn func())
	ApplyTerrainTextures()
	DrapeTrek()
}

// Event describes one state transition of a build. A failure is reported
// with From == To and Err set: the build stays where it stopped.
type Event struct {
	BuildID string
	Version string
	From    State
	To      State
	Stage   string
	Err     error
	// Elapsed is the time spent in From.
	Elapsed time.Duration
}

// Failed reports whether e is the terminal failure of a build.
func (e Event) Failed() bool { return e.Err != nil }

// Observer is notified of build transitions. Observers cannot influence the
// build; errors they hit are theirs to log.
type Observer interface {
	Observe(ctx context.Context, e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, e Event)

func (f ObserverFunc) Observe(ctx context.Context, e Event) { f(ctx, e) }

// LogObserver logs every transition on logger.
func LogObserver(logger *slog.Logger) Observer {
	return ObserverFunc(func(ctx context.Context, e Event) {
		attrs := []any{
			"build_id", e.BuildID,
			"version", e.Version,
			"from", e.From.String(),
			"to", e.To.String(),
			"stage", e.Stage,
			"elapsed", e.Elapsed,
		}
		if e.Failed() {
			logger.ErrorContext(ctx, "scene build failed",
				append(attrs, "kind", models.ErrorKind(e.Err), "error", e.Err)...)
			return
		}
		logger.InfoContext(ctx, "scene build transition", attrs...)
	})
}
