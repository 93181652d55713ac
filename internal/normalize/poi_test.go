package normalize

import (
	"errors"
	"testing"

	"rando/internal/models"
	"rando/pkg/geo"
)

func TestParsePois(t *testing.T) {
	data := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [6.5, 45.9]},
				"properties": {"elevation": 1234.5, "name": "Refuge", "type": {"label": "hut", "pictogram": "hut.png"}}
			},
			{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [6.6, 45.8]},
				"properties": {"elevation": 2051, "name": "Col"}
			}
		]
	}`)

	pois, err := ParsePois(data)
	if err != nil {
		t.Fatalf("ParsePois error: %v", err)
	}
	if len(pois) != 2 {
		t.Fatalf("len = %d; want 2", len(pois))
	}

	refuge := pois[0]
	want, _ := geo.ToMeters(models.GeoPoint{Lat: 45.9, Lng: 6.5})
	if refuge.Coordinates.X != want.X || refuge.Coordinates.Z != want.Z {
		t.Errorf("coordinates = %+v; want x=%v z=%v", refuge.Coordinates, want.X, want.Z)
	}
	if refuge.Coordinates.Y != 1234.5 {
		t.Errorf("Y = %v; want 1234.5", refuge.Coordinates.Y)
	}
	if refuge.Properties["name"] != "Refuge" {
		t.Errorf("name = %v; want Refuge", refuge.Properties["name"])
	}
	kind, ok := refuge.Properties["type"].(map[string]any)
	if !ok || kind["label"] != "hut" {
		t.Errorf("nested property = %#v; want untouched map", refuge.Properties["type"])
	}
	if pois[1].Coordinates.Y != 2051 {
		t.Errorf("second Y = %v; want 2051", pois[1].Coordinates.Y)
	}
}

func TestParsePois_Empty(t *testing.T) {
	pois, err := ParsePois([]byte(`{"type": "FeatureCollection", "features": []}`))
	if err != nil {
		t.Fatalf("ParsePois error: %v", err)
	}
	if len(pois) != 0 {
		t.Errorf("len = %d; want 0", len(pois))
	}
}

func TestParsePois_Malformed(t *testing.T) {
	feature := func(geometry, properties string) string {
		return `{"type": "FeatureCollection", "features": [{"type": "Feature", "geometry": ` +
			geometry + `, "properties": ` + properties + `}]}`
	}

	cases := []struct {
		name  string
		data  string
		field string
	}{
		{"not a feature collection", `{"type": "Feature"}`, "features"},
		{"non-numeric coordinates", feature(`{"type": "Point", "coordinates": ["a", "b"]}`, `{"elevation": 10}`), "features"},
		{"missing geometry", feature(`null`, `{"elevation": 10}`), ""},
		{"line geometry", feature(`{"type": "LineString", "coordinates": [[6, 45], [7, 46]]}`, `{"elevation": 10}`), "features[0].geometry"},
		{"missing elevation", feature(`{"type": "Point", "coordinates": [6.5, 45.9]}`, `{"name": "Lac"}`), "features[0].properties.elevation"},
		{"string elevation", feature(`{"type": "Point", "coordinates": [6.5, 45.9]}`, `{"elevation": "high"}`), "features[0].properties.elevation"},
		{"short coordinates", feature(`{"type": "Point", "coordinates": [6.5]}`, `{"elevation": 10}`), "features[0].geometry.coordinates"},
		{"null coordinates", feature(`{"type": "Point", "coordinates": null}`, `{"elevation": 10}`), "features[0].geometry.coordinates"},
		{"null latitude", feature(`{"type": "Point", "coordinates": [6.5, null]}`, `{"elevation": 10}`), "features[0].geometry.coordinates"},
		{"latitude out of range", feature(`{"type": "Point", "coordinates": [6.5, 120]}`, `{"elevation": 10}`), "features[0].geometry.coordinates"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePois([]byte(tc.data))
			var malformed *models.MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v; want MalformedInputError", err)
			}
			if tc.field != "" && malformed.Field != tc.field {
				t.Errorf("Field = %q; want %q", malformed.Field, tc.field)
			}
		})
	}
}
