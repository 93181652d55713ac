// Package models holds the raw JSON shapes served by the DEM and profile
// endpoints. Geographic fields are pointers so that a missing value can be told
// apart from a zero one.
package models

import "encoding/json"

type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Center is the DEM center; Z is its altitude in meters.
type Center struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	Z   *float64 `json:"z"`
}

type Altitudes struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type Extent struct {
	Northwest *Coordinates `json:"northwest"`
	Northeast *Coordinates `json:"northeast"`
	Southeast *Coordinates `json:"southeast"`
	Southwest *Coordinates `json:"southwest"`
	Altitudes *Altitudes   `json:"altitudes"`
}

type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Dem struct {
	Center     *Center     `json:"center"`
	Extent     *Extent     `json:"extent"`
	Altitudes  [][]float64 `json:"altitudes"`
	Resolution Resolution  `json:"resolution"`
}

// Profile is the trek profile payload. Each entry is a heterogeneous tuple
// whose index 2 holds [lng, lat]; the other fields are not interpreted here.
type Profile struct {
	Profile []json.RawMessage `json:"profile"`
}
