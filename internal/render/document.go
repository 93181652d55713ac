// Package render holds a headless scene renderer. Instead of drawing, it
// lays the scene out in world space and records it as a JSON document that a
// viewer can load as is.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"rando/internal/models"
)

var (
	// ErrNotTextured is recorded when the trek is draped before the terrain
	// textures are applied.
	ErrNotTextured = errors.New("render: trek draped before terrain textures")
	// ErrNoTerrain is recorded when an operation needs terrain that was never built.
	ErrNoTerrain = errors.New("render: terrain not built")
	// ErrNoTrek is recorded when the trek is draped before it was built.
	ErrNoTrek = errors.New("render: trek not built")
)

// Sink stores an encoded scene document under key.
type Sink interface {
	PutJSON(ctx context.Context, key string, data []byte) error
}

// Terrain is the DEM block in world space.
type Terrain struct {
	Extent     models.Extent      `json:"extent"`
	Center     models.MetricPoint `json:"center"`
	Resolution models.Resolution  `json:"resolution"`
	// Altitudes are world heights, row 0 on the north edge.
	Altitudes [][]float64 `json:"altitudes"`
	// Base is the world height of the bottom of the block.
	Base     float64 `json:"base"`
	TileZoom int     `json:"tile_zoom"`
	Textured bool    `json:"textured"`
}

type Trek struct {
	Points []models.MetricPoint `json:"points"`
	Width  float64              `json:"width"`
	Color  Color                `json:"color"`
	Draped bool                 `json:"draped"`
}

type Marker struct {
	Position   models.MetricPoint `json:"position"`
	Properties map[string]any     `json:"properties"`
}

type Camera struct {
	Animate   bool    `json:"animate"`
	Offset    float64 `json:"offset"`
	SpeedTrek float64 `json:"speed_trek"`
	SpeedFly  float64 `json:"speed_fly"`
}

// Snapshot is the serialized form of a Document.
type Snapshot struct {
	BuildID  string        `json:"build_id,omitempty"`
	Offset   models.Offset `json:"offset"`
	Settings Settings      `json:"settings"`
	Terrain  *Terrain      `json:"terrain,omitempty"`
	Trek     *Trek         `json:"trek,omitempty"`
	Markers  []Marker      `json:"markers"`
	Camera   Camera        `json:"camera"`
	// Steps is the ordered log of renderer calls.
	Steps []string `json:"steps"`
}

// Document is a headless scene.Renderer. It is safe for concurrent use.
type Document struct {
	settings Settings

	mu   sync.Mutex
	snap Snapshot
	dem  *models.DemData
	trek []models.TrekPoint
	err  error
}

// NewDocument returns an empty document for build id.
func NewDocument(id string, settings Settings) *Document {
	return &Document{
		settings: settings,
		snap: Snapshot{
			BuildID:  id,
			Settings: settings,
			Markers:  []Marker{},
			Steps:    []string{},
			Camera: Camera{
				Offset:    settings.CamOffset,
				SpeedTrek: settings.CamSpeedTrek,
				SpeedFly:  settings.CamSpeedFly,
			},
		},
	}
}

func (d *Document) BuildTerrain(dem *models.DemData, offset models.Offset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step("terrain")

	d.dem = dem
	d.snap.Offset = offset
	alt := make([][]float64, len(dem.Altitudes))
	for i, row := range dem.Altitudes {
		alt[i] = make([]float64, len(row))
		for j, h := range row {
			alt[i][j] = h - offset.Y
		}
	}
	d.snap.Terrain = &Terrain{
		Extent: models.Extent{
			Northwest: offset.Apply(dem.Extent.Northwest),
			Northeast: offset.Apply(dem.Extent.Northeast),
			Southeast: offset.Apply(dem.Extent.Southeast),
			Southwest: offset.Apply(dem.Extent.Southwest),
			Altitudes: models.AltitudeRange{
				Min: dem.Extent.Altitudes.Min - offset.Y,
				Max: dem.Extent.Altitudes.Max - offset.Y,
			},
		},
		Center:     offset.Apply(dem.Center),
		Resolution: dem.Resolution,
		Altitudes:  alt,
		Base:       dem.Extent.Altitudes.Min - offset.Y - d.settings.MinThickness,
		TileZoom:   d.settings.TileZoom,
	}
}

func (d *Document) BuildTrek(trek []models.TrekPoint, offset models.Offset, animate bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step("trek")

	d.trek = trek
	points := make([]models.MetricPoint, len(trek))
	for i, p := range trek {
		points[i] = offset.Apply(p)
	}
	d.snap.Trek = &Trek{
		Points: points,
		Width:  d.settings.TrekWidth,
		Color:  d.settings.TrekColor,
	}
	d.snap.Camera.Animate = animate
}

func (d *Document) BuildPoiMarker(poi models.PoiEntry, offset models.Offset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step("poi")

	d.snap.Markers = append(d.snap.Markers, Marker{
		Position:   offset.Apply(poi.Coordinates),
		Properties: poi.Properties,
	})
}

// OnAllAssetsReady runs fn right away: every asset is already in memory.
func (d *Document) OnAllAssetsReady(fn func()) {
	d.mu.Lock()
	d.step("assets_ready")
	d.mu.Unlock()
	fn()
}

func (d *Document) ApplyTerrainTextures() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step("textures")

	if d.snap.Terrain == nil {
		d.record(ErrNoTerrain)
		return
	}
	d.snap.Terrain.Textured = true
}

// DrapeTrek lifts every trek point onto the terrain surface plus TrekOffset.
func (d *Document) DrapeTrek() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.step("drape")

	switch {
	case d.snap.Terrain == nil:
		d.record(ErrNoTerrain)
		return
	case d.snap.Trek == nil:
		d.record(ErrNoTrek)
		return
	case !d.snap.Terrain.Textured:
		d.record(ErrNotTextured)
		return
	}

	offset := d.snap.Offset
	for i, p := range d.trek {
		p.Y = heightAt(d.dem, p.X, p.Z) + d.settings.TrekOffset
		d.snap.Trek.Points[i] = offset.Apply(p)
	}
	d.snap.Trek.Draped = true
}

// Err returns the first misuse recorded by the document.
func (d *Document) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Snapshot returns the recorded scene.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// MarshalJSON encodes the snapshot.
func (d *Document) MarshalJSON() ([]byte, error) {
	s := d.Snapshot()
	return json.Marshal(s)
}

// WriteTo writes the indented document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if err := d.Err(); err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode scene document: %w", err)
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// Save stores the document in sink under key.
func (d *Document) Save(ctx context.Context, sink Sink, key string) error {
	if err := d.Err(); err != nil {
		return err
	}
	data, err := d.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode scene document: %w", err)
	}
	if err := sink.PutJSON(ctx, key, data); err != nil {
		return fmt.Errorf("save scene document %s: %w", key, err)
	}
	return nil
}

func (d *Document) step(name string) { d.snap.Steps = append(d.snap.Steps, name) }

func (d *Document) record(err error) {
	if d.err == nil {
		d.err = err
	}
}
