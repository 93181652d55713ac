package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"rando/internal/models"
	"rando/pkg/geo"
)

// pointCoordinates shadows the geometry of each feature. orb zero-fills short
// Point coordinate arrays, so their length is checked on the raw payload.
type pointCoordinates struct {
	Features []struct {
		Geometry *struct {
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ParsePois decodes a GeoJSON feature collection of points. The altitude of
// each entry is its elevation property; the terrain grid is never consulted.
// Properties are kept untouched for the renderer.
func ParsePois(data []byte) ([]models.PoiEntry, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &models.MalformedInputError{Field: "features", Err: err}
	}
	var raw pointCoordinates
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &models.MalformedInputError{Field: "features", Err: err}
	}

	pois := make([]models.PoiEntry, 0, len(fc.Features))
	for i, f := range fc.Features {
		field := fmt.Sprintf("features[%d]", i)

		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, models.Malformed(field+".geometry", "want Point, got %T", f.Geometry)
		}
		if !hasLngLat(raw, i) {
			return nil, models.Malformed(field+".geometry.coordinates", "want [lng, lat]")
		}
		elevation, ok := f.Properties["elevation"].(float64)
		if !ok {
			return nil, models.Malformed(field+".properties.elevation", "want number, got %T",
				f.Properties["elevation"])
		}

		m, err := geo.ToMeters(models.GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()})
		if err != nil {
			return nil, &models.MalformedInputError{Field: field + ".geometry.coordinates", Err: err}
		}
		m.Y = elevation

		pois = append(pois, models.PoiEntry{Coordinates: m, Properties: map[string]any(f.Properties)})
	}
	return pois, nil
}

func hasLngLat(raw pointCoordinates, i int) bool {
	if i >= len(raw.Features) || raw.Features[i].Geometry == nil {
		return false
	}
	var coords []*float64
	if err := json.Unmarshal(raw.Features[i].Geometry.Coordinates, &coords); err != nil {
		return false
	}
	return len(coords) >= 2 && coords[0] != nil && coords[1] != nil
}
