// Package normalize turns the raw DEM, trek profile and POI payloads into
// metric entities sharing one frame.
package normalize

import (
	"encoding/json"

	"rando/internal/models"
	"rando/pkg/geo"
	raw "rando/models"
)

// ParseDem decodes a DEM payload, projects it and checks that the altitude
// grid matches the declared resolution. The offset is derived only from a DEM
// that passed the check.
func ParseDem(data []byte) (*models.DemData, models.Offset, error) {
	var payload raw.Dem
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, models.Offset{}, &models.MalformedInputError{Field: "dem", Err: err}
	}

	center, err := centerPoint(payload.Center)
	if err != nil {
		return nil, models.Offset{}, err
	}
	geoExtent, err := extent(payload.Extent)
	if err != nil {
		return nil, models.Offset{}, err
	}
	mExtent, err := geo.Extent2Meters(geoExtent)
	if err != nil {
		return nil, models.Offset{}, err
	}

	dem := &models.DemData{
		Extent:     mExtent,
		OExtent:    mExtent,
		Altitudes:  payload.Altitudes,
		Resolution: models.Resolution{X: payload.Resolution.X, Y: payload.Resolution.Y},
		Center:     center,
		OCenter:    center,
	}
	if err := CheckGrid(dem.Altitudes, dem.Resolution); err != nil {
		return nil, models.Offset{}, err
	}
	return dem, DeriveOffset(dem), nil
}

// CheckGrid verifies that grid has exactly res.Y rows of res.X columns.
func CheckGrid(grid [][]float64, res models.Resolution) error {
	if res.X <= 0 || res.Y <= 0 || len(grid) != res.Y {
		cols := 0
		if len(grid) > 0 {
			cols = len(grid[0])
		}
		return &models.DataIntegrityError{Expected: res, Rows: len(grid), Cols: cols, Row: -1}
	}
	for i, row := range grid {
		if len(row) != res.X {
			return &models.DataIntegrityError{Expected: res, Rows: len(grid), Cols: len(row), Row: i}
		}
	}
	return nil
}

// DeriveOffset centers the terrain horizontally on the origin and floors it
// at its minimum altitude.
func DeriveOffset(dem *models.DemData) models.Offset {
	return models.Offset{
		X: -dem.Center.X,
		Y: dem.Extent.Altitudes.Min,
		Z: -dem.Center.Z,
	}
}

// centerPoint projects the DEM center. Its altitude is taken from the payload
// as is, never from the projection.
func centerPoint(c *raw.Center) (models.MetricPoint, error) {
	if c == nil {
		return models.MetricPoint{}, models.Malformed("center", "missing")
	}
	p, err := geoPoint("center", c.Lat, c.Lng)
	if err != nil {
		return models.MetricPoint{}, err
	}
	if c.Z == nil {
		return models.MetricPoint{}, models.Malformed("center.z", "missing")
	}
	m, err := geo.ToMeters(p)
	if err != nil {
		return models.MetricPoint{}, err
	}
	m.Y = *c.Z
	return m, nil
}

func extent(e *raw.Extent) (models.GeoExtent, error) {
	if e == nil {
		return models.GeoExtent{}, models.Malformed("extent", "missing")
	}
	var (
		out models.GeoExtent
		err error
	)
	corners := []struct {
		name string
		in   *raw.Coordinates
		out  *models.GeoPoint
	}{
		{"northwest", e.Northwest, &out.Northwest},
		{"northeast", e.Northeast, &out.Northeast},
		{"southeast", e.Southeast, &out.Southeast},
		{"southwest", e.Southwest, &out.Southwest},
	}
	for _, c := range corners {
		field := "extent." + c.name
		if c.in == nil {
			return models.GeoExtent{}, models.Malformed(field, "missing")
		}
		if *c.out, err = geoPoint(field, c.in.Lat, c.in.Lng); err != nil {
			return models.GeoExtent{}, err
		}
	}

	if e.Altitudes == nil || e.Altitudes.Min == nil || e.Altitudes.Max == nil {
		return models.GeoExtent{}, models.Malformed("extent.altitudes", "min and max are required")
	}
	out.Altitudes = models.AltitudeRange{Min: *e.Altitudes.Min, Max: *e.Altitudes.Max}
	return out, nil
}

func geoPoint(field string, lat, lng *float64) (models.GeoPoint, error) {
	switch {
	case lat == nil:
		return models.GeoPoint{}, models.Malformed(field+".lat", "missing")
	case lng == nil:
		return models.GeoPoint{}, models.Malformed(field+".lng", "missing")
	}
	return models.GeoPoint{Lat: *lat, Lng: *lng}, nil
}
