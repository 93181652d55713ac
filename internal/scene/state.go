package scene

import "fmt"

// State is the position of a build in its state machine.
type State int

const (
	Idle State = iota
	FetchingDem
	FetchingTrek
	FetchingPoi
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingDem:
		return "fetching_dem"
	case FetchingTrek:
		return "fetching_trek"
	case FetchingPoi:
		return "fetching_poi"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Stage names, in pipeline order. StageOptions and StageHandoff only appear
// in errors and events.
const (
	StageOptions = "options"
	StageDem     = "dem"
	StageTrek    = "trek"
	StagePoi     = "poi"
	StageHandoff = "handoff"
)

var stageStates = map[string]State{
	StageDem:  FetchingDem,
	StageTrek: FetchingTrek,
	StagePoi:  FetchingPoi,
}

// Variant selects which stages a build runs. Both variants share one
// pipeline; they differ only by the optional POI stage.
type Variant struct {
	Version     string
	IncludePois bool
}

var (
	// VariantTerrain builds terrain and trek.
	VariantTerrain = Variant{Version: "1.0"}
	// VariantPois builds terrain, trek and points of interest.
	VariantPois = Variant{Version: "1.1", IncludePois: true}
)

// ParseVariant maps a data-shape version onto its variant.
func ParseVariant(version string) (Variant, error) {
	switch version {
	case VariantTerrain.Version:
		return VariantTerrain, nil
	case VariantPois.Version:
		return VariantPois, nil
	}
	return Variant{}, fmt.Errorf("unknown scene version %q", version)
}

// Stages lists the fetch stages of v in order.
func (v Variant) Stages() []string {
	if v.IncludePois {
		return []string{StageDem, StageTrek, StagePoi}
	}
	return []string{StageDem, StageTrek}
}

func (v Variant) String() string { return v.Version }
