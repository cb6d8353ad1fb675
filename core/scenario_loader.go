// core/scenario_loader.go
package core

import (
	"encoding/json"
	"fmt"
	"io"
)

// GroundScenario summarises what LoadGroundStations added.
type GroundScenario struct {
	IDs   []NodeID
	Names []string
}

// internal JSON shapes, unexported so the file format can evolve.
type groundScenarioJSON struct {
	GroundStations []groundStationJSON `json:"ground_stations"`
}

type groundStationJSON struct {
	Name            string   `json:"name"`
	LatitudeDeg     float64  `json:"latitude_deg"`
	LongitudeDeg    float64  `json:"longitude_deg"`
	AltitudeKm      float64  `json:"altitude_km"`
	MinElevationDeg *float64 `json:"min_elevation_deg"` // optional; shell default otherwise
}

// LoadGroundStations reads a JSON list of ground stations from r and adds
// them to c in file order. Every entry is validated before the first one is
// added, so a bad file leaves c unchanged.
func LoadGroundStations(c *Constellation, r io.Reader) (*GroundScenario, error) {
	if c == nil {
		return nil, fmt.Errorf("LoadGroundStations: constellation is nil")
	}

	var payload groundScenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadGroundStations: decode failed: %w", err)
	}

	for i, gs := range payload.GroundStations {
		site := Geodetic{LatDeg: gs.LatitudeDeg, LonDeg: gs.LongitudeDeg, AltKm: gs.AltitudeKm}
		if err := validateSite(gs.Name, site); err != nil {
			return nil, fmt.Errorf("LoadGroundStations: entry %d: %w", i, err)
		}
		if m := gs.MinElevationDeg; m != nil && !(*m >= -90 && *m <= 90) {
			return nil, fmt.Errorf("LoadGroundStations: entry %d: %w", i,
				&ConfigError{Param: "min_elevation_deg", Value: *m, Reason: "must be within [-90, 90]"})
		}
	}

	result := &GroundScenario{
		IDs:   make([]NodeID, 0, len(payload.GroundStations)),
		Names: make([]string, 0, len(payload.GroundStations)),
	}
	for _, gs := range payload.GroundStations {
		var opts []GroundStationOption
		if gs.MinElevationDeg != nil {
			opts = append(opts, WithMinElevation(*gs.MinElevationDeg))
		}
		id, err := c.AddGroundStation(gs.Name, gs.LatitudeDeg, gs.LongitudeDeg, gs.AltitudeKm, opts...)
		if err != nil {
			return result, fmt.Errorf("LoadGroundStations: %s: %w", gs.Name, err)
		}
		result.IDs = append(result.IDs, id)
		result.Names = append(result.Names, gs.Name)
	}
	return result, nil
}
