package core

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/walker-mesh/orbit"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func deltaShell() ShellConfig {
	return ShellConfig{
		Pattern:         PatternDelta,
		Satellites:      8,
		Planes:          2,
		Phasing:         1,
		AltitudeKm:      550,
		InclinationDeg:  53,
		MinElevationDeg: 10,
		Epoch:           testEpoch,
	}
}

func twoBody() orbit.Model {
	return orbit.NewTwoBody(orbit.EarthFrame())
}

func mustNew(t *testing.T, cfg ShellConfig, model orbit.Model, opts ...Option) *Constellation {
	t.Helper()
	c, err := New(cfg, model, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// stubModel places satellites without real dynamics: each plane sits at a
// fixed latitude, longitude follows the argument of latitude, and the
// vertical velocity sign is chosen per plane. Propagate only moves the epoch.
type stubModel struct {
	raanStep   float64
	latDeg     map[int]float64
	descending map[int]bool
}

func (m stubModel) plane(raan float64) int {
	return int(math.Round(raan / m.raanStep))
}

func (m stubModel) NewOrbit(el orbit.Elements) (orbit.Orbit, error) {
	const r = 6928.137
	p := m.plane(el.RAAN)
	lat := m.latDeg[p] * math.Pi / 180
	lon := el.ArgLatitude
	vz := 1.0
	if m.descending[p] {
		vz = -1
	}
	return orbit.Orbit{
		Epoch:    el.Epoch,
		Position: orbit.Vector{X: r * math.Cos(lat) * math.Cos(lon), Y: r * math.Cos(lat) * math.Sin(lon), Z: r * math.Sin(lat)},
		Velocity: orbit.Vector{X: 0, Y: 0, Z: vz},
	}, nil
}

func (m stubModel) Propagate(o orbit.Orbit, d time.Duration) (orbit.Orbit, error) {
	o.Epoch = o.Epoch.Add(d)
	return o, nil
}

var errBoom = errors.New("boom")

// failingModel wraps a real model and fails the n-th Propagate call.
type failingModel struct {
	orbit.Model
	failOn int32
	calls  atomic.Int32
}

func (m *failingModel) Propagate(o orbit.Orbit, d time.Duration) (orbit.Orbit, error) {
	if m.calls.Add(1) == m.failOn {
		return orbit.Orbit{}, errBoom
	}
	return m.Model.Propagate(o, d)
}
