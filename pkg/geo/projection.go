// Package geo projects WGS84 coordinates into the metric frame shared by every
// entity of a scene.
package geo

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"rando/internal/models"
)

var errNonFinite = errors.New("not a finite number")

// ToMeters projects p with spherical Mercator. Easting goes to X, northing to
// Z; Y is left at 0 for the caller to fill with an altitude.
func ToMeters(p models.GeoPoint) (models.MetricPoint, error) {
	if err := validate(p); err != nil {
		return models.MetricPoint{}, err
	}
	m := project.Point(orb.Point{p.Lng, p.Lat}, project.WGS84.ToMercator)
	if !finite(m.X()) || !finite(m.Y()) {
		return models.MetricPoint{}, &models.MalformedInputError{
			Field: "coordinates",
			Err:   errNonFinite,
		}
	}
	return models.MetricPoint{X: m.X(), Z: m.Y()}, nil
}

// Extent2Meters projects the four corners of e. Altitudes pass through.
func Extent2Meters(e models.GeoExtent) (models.Extent, error) {
	m := models.Extent{Altitudes: e.Altitudes}
	corners := []struct {
		name string
		in   models.GeoPoint
		out  *models.MetricPoint
	}{
		{"northwest", e.Northwest, &m.Northwest},
		{"northeast", e.Northeast, &m.Northeast},
		{"southeast", e.Southeast, &m.Southeast},
		{"southwest", e.Southwest, &m.Southwest},
	}
	for _, c := range corners {
		p, err := ToMeters(c.in)
		if err != nil {
			return models.Extent{}, withField("extent."+c.name, err)
		}
		*c.out = p
	}
	return m, nil
}

func validate(p models.GeoPoint) error {
	switch {
	case !finite(p.Lat):
		return models.Malformed("lat", "%w", errNonFinite)
	case !finite(p.Lng):
		return models.Malformed("lng", "%w", errNonFinite)
	case math.Abs(p.Lat) > 90:
		return models.Malformed("lat", "latitude %v out of range", p.Lat)
	case math.Abs(p.Lng) > 180:
		return models.Malformed("lng", "longitude %v out of range", p.Lng)
	}
	return nil
}

// withField prefixes the field of a MalformedInputError with a location.
func withField(prefix string, err error) error {
	if m, ok := err.(*models.MalformedInputError); ok {
		return &models.MalformedInputError{Field: prefix + "." + m.Field, Err: m.Err}
	}
	return err
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
