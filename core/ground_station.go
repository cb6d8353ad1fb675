package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// GroundStation is a fixed site on the rotating Earth.
type GroundStation struct {
	id              NodeID
	name            string
	site            Geodetic
	position        Vec3
	minElevationDeg float64
	epoch           time.Time
}

func (g GroundStation) ID() NodeID               { return g.id }
func (g GroundStation) Name() string             { return g.name }
func (g GroundStation) Geodetic() Geodetic       { return g.site }
func (g GroundStation) Position() Vec3           { return g.position }
func (g GroundStation) MinElevationDeg() float64 { return g.minElevationDeg }
func (g GroundStation) Epoch() time.Time         { return g.epoch }

// Elevation returns the elevation of sat above this station's horizon, in
// degrees.
func (g GroundStation) Elevation(sat Satellite) float64 {
	return ElevationDegrees(g.site, sat.Position())
}

// IsVisible reports whether sat is at or above the station's elevation mask.
func (g GroundStation) IsVisible(sat Satellite) bool {
	return g.visibleAt(sat.Position())
}

func (g GroundStation) visibleAt(pos Vec3) bool {
	return ElevationDegrees(g.site, pos) >= g.minElevationDeg
}

// GroundStationOption tunes a station at AddGroundStation time.
type GroundStationOption func(*GroundStation)

// WithMinElevation overrides the shell-wide elevation mask for one station.
func WithMinElevation(deg float64) GroundStationOption {
	return func(g *GroundStation) {
		g.minElevationDeg = deg
	}
}

func validateSite(name string, site Geodetic) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &ConfigError{Param: "name", Value: name, Reason: "must not be empty"}
	case !(site.LatDeg >= -90 && site.LatDeg <= 90):
		return &ConfigError{Param: "latitude_deg", Value: site.LatDeg, Reason: "must be within [-90, 90]"}
	case !(site.LonDeg >= -180 && site.LonDeg <= 180):
		return &ConfigError{Param: "longitude_deg", Value: site.LonDeg, Reason: "must be within [-180, 180]"}
	case math.IsNaN(site.AltKm) || math.IsInf(site.AltKm, 0):
		return &ConfigError{Param: "altitude_km", Value: site.AltKm, Reason: "must be finite"}
	}
	return nil
}

func (g GroundStation) String() string {
	return fmt.Sprintf("%s(%d @ %.4f,%.4f)", g.name, g.id, g.site.LatDeg, g.site.LonDeg)
}
