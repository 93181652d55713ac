package normalize

import (
	"encoding/json"
	"fmt"

	"rando/internal/models"
	"rando/pkg/geo"
	raw "rando/models"
)

// profileCoordinates is the index of [lng, lat] inside a profile tuple.
const profileCoordinates = 2

// ParseTrek projects every profile entry in order. Y is 0 on every point; the
// renderer drapes the path onto the terrain later. An empty profile yields an
// empty path.
func ParseTrek(data []byte) ([]models.TrekPoint, error) {
	var payload raw.Profile
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &models.MalformedInputError{Field: "profile", Err: err}
	}

	trek := make([]models.TrekPoint, 0, len(payload.Profile))
	for i, entry := range payload.Profile {
		field := fmt.Sprintf("profile[%d]", i)

		var tuple []json.RawMessage
		if err := json.Unmarshal(entry, &tuple); err != nil {
			return nil, &models.MalformedInputError{Field: field, Err: err}
		}
		if len(tuple) <= profileCoordinates {
			return nil, models.Malformed(field, "tuple has %d fields, coordinates expected at index %d",
				len(tuple), profileCoordinates)
		}

		field = fmt.Sprintf("%s[%d]", field, profileCoordinates)
		var coords []*float64
		if err := json.Unmarshal(tuple[profileCoordinates], &coords); err != nil {
			return nil, &models.MalformedInputError{Field: field, Err: err}
		}
		if len(coords) < 2 || coords[0] == nil || coords[1] == nil {
			return nil, models.Malformed(field, "want [lng, lat]")
		}

		p, err := geo.ToMeters(models.GeoPoint{Lat: *coords[1], Lng: *coords[0]})
		if err != nil {
			return nil, &models.MalformedInputError{Field: field, Err: err}
		}
		trek = append(trek, p)
	}
	return trek, nil
}
