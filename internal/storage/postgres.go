package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rando/internal/models"
	"rando/internal/scene"
)

// ErrBuildNotFound is returned by Get for an unknown build id.
var ErrBuildNotFound = errors.New("build not found")

// DBTX is the part of *pgxpool.Pool the history store uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool creates a connection pool and checks it with a ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scene_builds (
	build_id    TEXT PRIMARY KEY,
	version     TEXT NOT NULL,
	state       TEXT NOT NULL,
	stage       TEXT NOT NULL,
	error_kind  TEXT NOT NULL DEFAULT 'none',
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

const upsertBuild = `
INSERT INTO scene_builds (build_id, version, state, stage, error_kind, error, started_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (build_id) DO UPDATE SET
	version    = EXCLUDED.version,
	state      = EXCLUDED.state,
	stage      = EXCLUDED.stage,
	error_kind = EXCLUDED.error_kind,
	error      = EXCLUDED.error,
	updated_at = EXCLUDED.updated_at`

const selectBuild = `
SELECT build_id, version, state, stage, error_kind, COALESCE(error, ''), started_at, updated_at
FROM scene_builds WHERE build_id = $1`

// BuildRecord is the last known position of a build.
type BuildRecord struct {
	BuildID   string
	Version   string
	State     string
	Stage     string
	ErrorKind string
	Error     string
	StartedAt time.Time
	UpdatedAt time.Time
}

// BuildHistory records the state of every build in Postgres. It is a
// scene.Observer.
type BuildHistory struct {
	db     DBTX
	logger *slog.Logger
	now    func() time.Time
}

func NewBuildHistory(db DBTX, logger *slog.Logger) *BuildHistory {
	return &BuildHistory{db: db, logger: logger, now: time.Now}
}

// EnsureSchema creates the history table if needed.
func (h *BuildHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create scene_builds: %w", err)
	}
	return nil
}

// Observe upserts the build row. A failure keeps the state the build stopped
// in and adds the error.
func (h *BuildHistory) Observe(ctx context.Context, e scene.Event) {
	var errText any
	if e.Err != nil {
		errText = e.Err.Error()
	}
	_, err := h.db.Exec(ctx, upsertBuild,
		e.BuildID, e.Version, e.To.String(), e.Stage, models.ErrorKind(e.Err), errText, h.now())
	if err != nil {
		h.logger.ErrorContext(ctx, "record build history", "build_id", e.BuildID, "error", err)
	}
}

// Get returns the stored record of id.
func (h *BuildHistory) Get(ctx context.Context, id string) (BuildRecord, error) {
	var r BuildRecord
	err := h.db.QueryRow(ctx, selectBuild, id).Scan(
		&r.BuildID, &r.Version, &r.State, &r.Stage, &r.ErrorKind, &r.Error, &r.StartedAt, &r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return BuildRecord{}, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	if err != nil {
		return BuildRecord{}, err
	}
	return r, nil
}
