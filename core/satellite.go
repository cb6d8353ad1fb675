package core

import (
	"github.com/signalsfoundry/walker-mesh/orbit"
)

// Satellite is one member of the shell. Its plane and in-plane index are
// fixed at construction; only the orbit state moves.
type Satellite struct {
	id    NodeID
	plane uint32
	index uint32
	orbit orbit.Orbit
}

func (s Satellite) ID() NodeID           { return s.id }
func (s Satellite) Plane() uint32        { return s.plane }
func (s Satellite) Index() uint32        { return s.index }
func (s Satellite) Orbit() orbit.Orbit   { return s.orbit }
func (s Satellite) Position() Vec3       { return vec3From(orbit.ECEF(s.orbit)) }
func (s Satellite) Geodetic() Geodetic   { return geodeticFrom(orbit.Geodetic(s.orbit)) }
func (s Satellite) LatitudeDeg() float64 { return s.Geodetic().LatDeg }

// Ascending reports whether the satellite is moving north. A zero
// vertical velocity counts as ascending.
func (s Satellite) Ascending() bool {
	return orbit.VelocityZ(s.orbit) >= 0
}

// Neighbors holds the grid neighbours of a satellite.
type Neighbors struct {
	ID    NodeID
	Top   NodeID // next satellite in the same plane
	Right NodeID // same slot in the next plane
}

// Neighbors computes the wrap-around grid neighbours for a shell of the
// given dimensions.
func (s Satellite) Neighbors(perPlane, planes uint32) Neighbors {
	return gridNeighbors(s.plane, s.index, perPlane, planes)
}

func gridNeighbors(plane, index, perPlane, planes uint32) Neighbors {
	return Neighbors{
		ID:    NodeID(index + plane*perPlane),
		Top:   NodeID((index+1)%perPlane + plane*perPlane),
		Right: NodeID(index + ((plane+1)%planes)*perPlane),
	}
}
