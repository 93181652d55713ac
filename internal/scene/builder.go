// Package scene drives the build of a trek scene: it fetches the DEM, the
// trek profile and optionally the points of interest one after another,
// normalizes each into the shared metric frame and hands the result to a
// renderer once everything is in place.
package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rando/internal/models"
	"rando/internal/normalize"
	"rando/internal/pipeline"
)

// ErrAlreadyBuilt is returned when Build is called twice on one Builder.
var ErrAlreadyBuilt = errors.New("scene: build already started")

// Options describes one build.
type Options struct {
	BuildID    string
	Variant    Variant
	DemURL     string
	ProfileURL string
	PoiURL     string
	// Demo disables the automatic camera fly-through.
	Demo bool
}

// OptionsFromRequest maps a build request onto Options.
func OptionsFromRequest(req models.BuildRequest) (Options, error) {
	v, err := ParseVariant(req.Version)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		BuildID:    req.ID,
		Variant:    v,
		DemURL:     req.DemURL,
		ProfileURL: req.ProfileURL,
		PoiURL:     req.PoiURL,
		Demo:       req.Demo,
	}
	return opts, opts.Validate()
}

// Validate checks that every URL the variant needs is present.
func (o Options) Validate() error {
	switch {
	case o.Variant.Version == "":
		return errors.New("scene: variant is required")
	case o.DemURL == "":
		return errors.New("scene: dem url is required")
	case o.ProfileURL == "":
		return errors.New("scene: profile url is required")
	case o.Variant.IncludePois && o.PoiURL == "":
		return fmt.Errorf("scene: version %s requires a poi url", o.Variant)
	}
	return nil
}

// Scene is the fully prepared data handed to the renderer.
type Scene struct {
	Variant Variant
	Dem     *models.DemData
	Offset  models.Offset
	Trek    []models.TrekPoint
	Pois    []models.PoiEntry
}

// buildState accumulates stage results. It is private to one Run and is
// dropped on failure, so nothing half-built leaks to the renderer.
type buildState struct {
	raw    json.RawMessage
	dem    *models.DemData
	offset models.Offset
	trek   []models.TrekPoint
	pois   []models.PoiEntry
}

// Builder runs the scene build state machine. A Builder is single use.
type Builder struct {
	opts      Options
	fetcher   Fetcher
	renderer  Renderer
	observers []Observer
	now       func() time.Time

	mu      sync.Mutex
	state   State
	err     error
	started bool
	entered time.Time
}

// NewBuilder returns an idle Builder.
func NewBuilder(opts Options, fetcher Fetcher, renderer Renderer, observers ...Observer) *Builder {
	return &Builder{
		opts:      opts,
		fetcher:   fetcher,
		renderer:  renderer,
		observers: observers,
		now:       time.Now,
		state:     Idle,
	}
}

// State returns the current state. It is safe to call from any goroutine.
func (b *Builder) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Err returns the terminal error of a failed build, or nil.
func (b *Builder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Build fetches and normalizes every source of the variant, then moves to
// Ready and hands the scene to the renderer. Any failure stops the build in
// its current state and is returned as a *pipeline.StageError; the renderer
// is not called at all in that case. Cancelling ctx tears the build down:
// in-flight fetches see the cancellation and their results are discarded.
func (b *Builder) Build(ctx context.Context) (*Scene, error) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil, ErrAlreadyBuilt
	}
	b.started = true
	b.entered = b.now()
	b.mu.Unlock()

	if err := b.opts.Validate(); err != nil {
		return nil, b.fail(ctx, &pipeline.StageError{Stage: StageOptions, Err: err})
	}

	var st buildState
	p := pipeline.NewPipeline(b.stages()...).OnEnter(func(ctx context.Context, stage string) {
		b.transition(ctx, stageStates[stage], stage)
	})
	if err := p.Run(ctx, &st); err != nil {
		return nil, b.fail(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, b.fail(ctx, &pipeline.StageError{Stage: StageHandoff, Err: err})
	}

	s := &Scene{
		Variant: b.opts.Variant,
		Dem:     st.dem,
		Offset:  st.offset,
		Trek:    st.trek,
		Pois:    st.pois,
	}
	b.transition(ctx, Ready, StageHandoff)
	b.handoff(s)
	return s, nil
}

func (b *Builder) stages() []pipeline.Stage[buildState] {
	stages := []pipeline.Stage[buildState]{
		pipeline.NewStage(StageDem, b.fetch(b.opts.DemURL), parseDem),
		pipeline.NewStage(StageTrek, b.fetch(b.opts.ProfileURL), parseTrek),
	}
	if b.opts.Variant.IncludePois {
		stages = append(stages, pipeline.NewStage(StagePoi, b.fetch(b.opts.PoiURL), parsePois))
	}
	return stages
}

// fetch returns a step loading url into the state's raw buffer. Any failure
// is reported as a TransportError.
func (b *Builder) fetch(url string) pipeline.Step[buildState] {
	return func(ctx context.Context, st *buildState) error {
		raw, err := b.fetcher.FetchJSON(ctx, url)
		if err != nil {
			var transport *models.TransportError
			if errors.As(err, &transport) {
				return err
			}
			return &models.TransportError{URL: url, Err: err}
		}
		st.raw = raw
		return nil
	}
}

func parseDem(_ context.Context, st *buildState) error {
	dem, offset, err := normalize.ParseDem(st.raw)
	if err != nil {
		return err
	}
	st.dem, st.offset, st.raw = dem, offset, nil
	return nil
}

func parseTrek(_ context.Context, st *buildState) error {
	trek, err := normalize.ParseTrek(st.raw)
	if err != nil {
		return err
	}
	st.trek, st.raw = trek, nil
	return nil
}

func parsePois(_ context.Context, st *buildState) error {
	pois, err := normalize.ParsePois(st.raw)
	if err != nil {
		return err
	}
	st.pois, st.raw = pois, nil
	return nil
}

// handoff instructs the renderer in a fixed order. Texturing must precede
// draping, which needs the textured ground to exist.
func (b *Builder) handoff(s *Scene) {
	r := b.renderer
	r.BuildTerrain(s.Dem, s.Offset)
	r.BuildTrek(s.Trek, s.Offset, !b.opts.Demo)
	if s.Variant.IncludePois {
		for _, poi := range s.Pois {
			r.BuildPoiMarker(poi, s.Offset)
		}
	}
	r.OnAllAssetsReady(func() {
		r.ApplyTerrainTextures()
		r.DrapeTrek()
	})
}

func (b *Builder) transition(ctx context.Context, to State, stage string) {
	b.mu.Lock()
	now := b.now()
	e := Event{
		BuildID: b.opts.BuildID,
		Version: b.opts.Variant.Version,
		From:    b.state,
		To:      to,
		Stage:   stage,
		Elapsed: now.Sub(b.entered),
	}
	b.state, b.entered = to, now
	b.mu.Unlock()

	b.notify(ctx, e)
}

// fail records err as terminal without moving the state.
func (b *Builder) fail(ctx context.Context, err error) error {
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		stageErr = &pipeline.StageError{Stage: StageHandoff, Err: err}
	}

	b.mu.Lock()
	b.err = stageErr
	e := Event{
		BuildID: b.opts.BuildID,
		Version: b.opts.Variant.Version,
		From:    b.state,
		To:      b.state,
		Stage:   stageErr.Stage,
		Err:     stageErr,
		Elapsed: b.now().Sub(b.entered),
	}
	b.mu.Unlock()

	// Observers may still need to report a torn down build.
	b.notify(context.WithoutCancel(ctx), e)
	return stageErr
}

func (b *Builder) notify(ctx context.Context, e Event) {
	for _, o := range b.observers {
		o.Observe(ctx, e)
	}
}
