package models

// BuildRequest asks for one scene build. It is the message format consumed
// from Kafka by the scene worker.
type BuildRequest struct {
	ID         string `json:"id"`
	Version    string `json:"version"`
	DemURL     string `json:"dem_url"`
	ProfileURL string `json:"profile_url"`
	PoiURL     string `json:"poi_url,omitempty"`
	Demo       bool   `json:"demo"`
}
