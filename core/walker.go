package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Pattern selects how orbital planes are spread in RAAN.
type Pattern int

const (
	// PatternStar spreads planes over half a revolution (π/P); the first and
	// last planes are counter-rotating neighbours across the seam.
	PatternStar Pattern = iota
	// PatternDelta spreads planes over a full revolution (2π/P).
	PatternDelta
)

func (p Pattern) String() string {
	switch p {
	case PatternStar:
		return "star"
	case PatternDelta:
		return "delta"
	default:
		return fmt.Sprintf("Pattern(%d)", int(p))
	}
}

// ParsePattern accepts "star" or "delta" in any case.
func ParsePattern(s string) (Pattern, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "star":
		return PatternStar, nil
	case "delta":
		return PatternDelta, nil
	default:
		return 0, &ConfigError{Param: "pattern", Value: s, Reason: `must be "star" or "delta"`}
	}
}

// RAANSpacing returns the angular distance between adjacent planes, in radians.
func (p Pattern) RAANSpacing(planes uint32) float64 {
	if p == PatternStar {
		return math.Pi / float64(planes)
	}
	return 2 * math.Pi / float64(planes)
}

// ShellConfig describes a single Walker shell.
type ShellConfig struct {
	Pattern         Pattern
	Satellites      uint32 // S, total satellites
	Planes          uint32 // P, orbital planes
	Phasing         uint32 // F, inter-plane phasing factor
	AltitudeKm      float64
	InclinationDeg  float64
	MinElevationDeg float64 // default GSL elevation mask
	Epoch           time.Time
}

// SatellitesPerPlane returns Q = S / P. Only meaningful once Validate passes.
func (c ShellConfig) SatellitesPerPlane() uint32 {
	if c.Planes == 0 {
		return 0
	}
	return c.Satellites / c.Planes
}

// Validate checks the shell parameters and returns a *ConfigError naming the
// first offending one.
func (c ShellConfig) Validate() error {
	switch {
	case c.Pattern != PatternStar && c.Pattern != PatternDelta:
		return &ConfigError{Param: "pattern", Value: c.Pattern, Reason: "unknown pattern"}
	case c.Satellites == 0:
		return &ConfigError{Param: "satellites", Value: c.Satellites, Reason: "must be positive"}
	case c.Planes == 0:
		return &ConfigError{Param: "planes", Value: c.Planes, Reason: "must be positive"}
	case c.Satellites%c.Planes != 0:
		return &ConfigError{Param: "planes", Value: c.Planes,
			Reason: fmt.Sprintf("must divide satellites (%d)", c.Satellites)}
	case c.Phasing >= c.Satellites:
		return &ConfigError{Param: "phasing", Value: c.Phasing,
			Reason: fmt.Sprintf("must be less than satellites (%d)", c.Satellites)}
	case !(c.AltitudeKm > 0) || math.IsInf(c.AltitudeKm, 0):
		return &ConfigError{Param: "altitude_km", Value: c.AltitudeKm, Reason: "must be positive and finite"}
	case !(c.InclinationDeg >= 0 && c.InclinationDeg <= 180):
		return &ConfigError{Param: "inclination_deg", Value: c.InclinationDeg, Reason: "must be within [0, 180]"}
	case !(c.MinElevationDeg >= -90 && c.MinElevationDeg <= 90):
		return &ConfigError{Param: "min_elevation_deg", Value: c.MinElevationDeg, Reason: "must be within [-90, 90]"}
	case c.Epoch.IsZero():
		return &ConfigError{Param: "epoch", Value: c.Epoch, Reason: "must be set"}
	}
	return nil
}

// Placement is the initial slot of one satellite in the shell.
type Placement struct {
	ID    NodeID
	Plane uint32
	Index uint32
	RAAN  float64 // radians, [0, 2π)
	AOL   float64 // argument of latitude, radians, [0, 2π)
}

// WalkerPlacements lays out the shell plane by plane. Satellite k of plane p
// gets ID k + p·Q, RAAN p·spacing and argument of latitude
// (p·2πF/S + k·2π/Q) mod 2π.
func WalkerPlacements(cfg ShellConfig) ([]Placement, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	q := cfg.SatellitesPerPlane()
	raanSpacing := cfg.Pattern.RAANSpacing(cfg.Planes)
	phaseSpacing := 2 * math.Pi / float64(q)
	phaseOffset := 2 * math.Pi * float64(cfg.Phasing) / float64(cfg.Satellites)

	out := make([]Placement, 0, cfg.Satellites)
	for p := uint32(0); p < cfg.Planes; p++ {
		raan := wrapAngle(raanSpacing * float64(p))
		for k := uint32(0); k < q; k++ {
			out = append(out, Placement{
				ID:    NodeID(k + p*q),
				Plane: p,
				Index: k,
				RAAN:  raan,
				AOL:   wrapAngle(phaseOffset*float64(p) + phaseSpacing*float64(k)),
			})
		}
	}
	return out, nil
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
