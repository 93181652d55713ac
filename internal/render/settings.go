package render

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R float64 `json:"r" mapstructure:"r"`
	G float64 `json:"g" mapstructure:"g"`
	B float64 `json:"b" mapstructure:"b"`
}

// Settings tunes how the scene is laid out and flown through. Lengths are in
// meters.
type Settings struct {
	// CamOffset is the camera height above the trek.
	CamOffset float64 `json:"cam_offset" mapstructure:"cam_offset"`
	// CamSpeedTrek is the trek following speed, from 0 to 2.
	CamSpeedTrek float64 `json:"cam_speed_trek" mapstructure:"cam_speed_trek"`
	CamSpeedFly  float64 `json:"cam_speed_fly" mapstructure:"cam_speed_fly"`
	// MinThickness is how far the terrain block extends below its lowest point.
	MinThickness float64 `json:"min_thickness" mapstructure:"min_thickness"`
	// TrekOffset lifts the draped trek above the ground.
	TrekOffset float64 `json:"trek_offset" mapstructure:"trek_offset"`
	TrekWidth  float64 `json:"trek_width" mapstructure:"trek_width"`
	TrekColor  Color   `json:"trek_color" mapstructure:"trek_color"`
	TileZoom   int     `json:"tile_zoom" mapstructure:"tile_zoom"`
}

// DefaultSettings returns the stock viewer settings.
func DefaultSettings() Settings {
	return Settings{
		CamOffset:    200,
		CamSpeedTrek: 1.8,
		CamSpeedFly:  20,
		MinThickness: 200,
		TrekOffset:   2,
		TrekWidth:    3,
		TrekColor:    Color{R: 0.1, G: 0.6, B: 0.2},
		TileZoom:     17,
	}
}
