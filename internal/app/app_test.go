package app

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"rando/internal/models"
	"rando/internal/pipeline"
	"rando/internal/render"
	"rando/internal/scene"
	"rando/pkg/fetch"
)

func fixtureURL(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return "file://" + filepath.ToSlash(abs)
}

func TestBuildDocument_FromFiles(t *testing.T) {
	opts := scene.Options{
		BuildID:    "demo",
		Variant:    scene.VariantPois,
		DemURL:     fixtureURL(t, "dem.json"),
		ProfileURL: fixtureURL(t, "profile.json"),
		PoiURL:     fixtureURL(t, "pois.geojson"),
	}
	settings := render.DefaultSettings()

	var states []scene.State
	obs := scene.ObserverFunc(func(_ context.Context, e scene.Event) { states = append(states, e.To) })

	doc, err := BuildDocument(context.Background(), opts, &fetch.Router{}, settings, obs)
	if err != nil {
		t.Fatalf("BuildDocument error: %v", err)
	}

	wantStates := []scene.State{scene.FetchingDem, scene.FetchingTrek, scene.FetchingPoi, scene.Ready}
	if !reflect.DeepEqual(states, wantStates) {
		t.Errorf("states = %v; want %v", states, wantStates)
	}

	s := doc.Snapshot()
	wantSteps := []string{"terrain", "trek", "poi", "poi", "assets_ready", "textures", "drape"}
	if !reflect.DeepEqual(s.Steps, wantSteps) {
		t.Errorf("steps = %v; want %v", s.Steps, wantSteps)
	}
	if s.Offset.Y != 1200 {
		t.Errorf("offset.Y = %v; want the minimum altitude 1200", s.Offset.Y)
	}
	if s.Terrain.Center.X != 0 || s.Terrain.Center.Z != 0 {
		t.Errorf("terrain center = %+v; want the origin", s.Terrain.Center)
	}
	if !s.Trek.Draped || len(s.Trek.Points) != 4 || !s.Camera.Animate {
		t.Fatalf("trek = %+v camera = %+v", s.Trek, s.Camera)
	}
	// Draped heights stay between the lowest and highest grid samples.
	for i, p := range s.Trek.Points {
		lo, hi := settings.TrekOffset, 1200+settings.TrekOffset
		if p.Y < lo || p.Y > hi {
			t.Errorf("point %d Y = %v; want within [%v, %v]", i, p.Y, lo, hi)
		}
	}
	if len(s.Markers) != 2 || s.Markers[1].Properties["name"] != "Col de la Croix" {
		t.Errorf("markers = %+v", s.Markers)
	}
	if s.Markers[0].Position.Y != 1655-1200 {
		t.Errorf("marker Y = %v; want 455", s.Markers[0].Position.Y)
	}
}

func TestBuildDocument_MissingSource(t *testing.T) {
	opts := scene.Options{
		BuildID:    "broken",
		Variant:    scene.VariantTerrain,
		DemURL:     fixtureURL(t, "dem.json"),
		ProfileURL: fixtureURL(t, "missing.json"),
	}

	doc, err := BuildDocument(context.Background(), opts, &fetch.Router{}, render.DefaultSettings())
	if doc != nil {
		t.Error("document returned for a failed build")
	}
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != scene.StageTrek {
		t.Fatalf("error = %v; want trek stage failure", err)
	}
	if models.ErrorKind(err) != "transport" {
		t.Errorf("kind = %q; want transport", models.ErrorKind(err))
	}
}
