package models

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MetricPoint is a point in the shared local frame. X and Z are horizontal
// (projected easting and northing), Y is altitude in meters.
type MetricPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type AltitudeRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// GeoExtent is the geographic form of a DEM bounding region.
type GeoExtent struct {
	Northwest GeoPoint      `json:"northwest"`
	Northeast GeoPoint      `json:"northeast"`
	Southeast GeoPoint      `json:"southeast"`
	Southwest GeoPoint      `json:"southwest"`
	Altitudes AltitudeRange `json:"altitudes"`
}

// Extent is the metric form of a DEM bounding region.
type Extent struct {
	Northwest MetricPoint   `json:"northwest"`
	Northeast MetricPoint   `json:"northeast"`
	Southeast MetricPoint   `json:"southeast"`
	Southwest MetricPoint   `json:"southwest"`
	Altitudes AltitudeRange `json:"altitudes"`
}

// Bounds returns the horizontal bounding box of the four corners.
func (e Extent) Bounds() (minX, maxX, minZ, maxZ float64) {
	corners := [...]MetricPoint{e.Northwest, e.Northeast, e.Southeast, e.Southwest}
	minX, maxX = corners[0].X, corners[0].X
	minZ, maxZ = corners[0].Z, corners[0].Z
	for _, c := range corners[1:] {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minZ, maxZ = min(minZ, c.Z), max(maxZ, c.Z)
	}
	return minX, maxX, minZ, maxZ
}

// Resolution is the declared size of the altitude grid: X columns by Y rows.
type Resolution struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DemData is a normalized digital elevation model.
//
// OExtent and OCenter are copies taken right after projection and are never
// modified afterwards; renderers may move Extent and Center around.
type DemData struct {
	Extent     Extent      `json:"extent"`
	OExtent    Extent      `json:"o_extent"`
	Altitudes  [][]float64 `json:"altitudes"`
	Resolution Resolution  `json:"resolution"`
	Center     MetricPoint `json:"center"`
	OCenter    MetricPoint `json:"o_center"`
}

// Offset translates normalized points into world space: the DEM center maps to
// the origin and the DEM minimum altitude maps to zero.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Apply places p in world space.
func (o Offset) Apply(p MetricPoint) MetricPoint {
	return MetricPoint{
		X: p.X + o.X,
		Y: p.Y - o.Y,
		Z: p.Z + o.Z,
	}
}

// TrekPoint is one vertex of the trek path. Y stays 0 until the trek is
// draped onto the terrain.
type TrekPoint = MetricPoint

// PoiEntry is a normalized point of interest. Properties are kept as decoded.
type PoiEntry struct {
	Coordinates MetricPoint    `json:"coordinates"`
	Properties  map[string]any `json:"properties"`
}
