package core

import (
	"fmt"
	"math"
)

// LinkType partitions the mesh into inter-satellite and ground-to-satellite
// links. Each type is recomputed independently.
type LinkType int

const (
	LinkISL LinkType = iota // satellite to satellite
	LinkGSL                 // ground station to satellite
)

func (t LinkType) String() string {
	switch t {
	case LinkISL:
		return "isl"
	case LinkGSL:
		return "gsl"
	default:
		return fmt.Sprintf("LinkType(%d)", int(t))
	}
}

// NetworkLink is an undirected edge between two nodes. For GSLs, A is the
// ground station and B the satellite.
type NetworkLink struct {
	Type       LinkType
	A          NodeID
	B          NodeID
	DistanceKm float64
}

// Weight is the distance rounded to whole kilometres, as exported in graphs.
func (l NetworkLink) Weight() int {
	return int(math.Round(l.DistanceKm))
}

// Connects reports whether the link has id as an endpoint.
func (l NetworkLink) Connects(id NodeID) bool {
	return l.A == id || l.B == id
}

// key returns an orientation-independent identity for the endpoint pair.
func (l NetworkLink) key() linkKey {
	if l.A > l.B {
		return linkKey{lo: l.B, hi: l.A}
	}
	return linkKey{lo: l.A, hi: l.B}
}

type linkKey struct {
	lo, hi NodeID
}

func (l NetworkLink) String() string {
	return fmt.Sprintf("%s %d-%d (%.1f km)", l.Type, l.A, l.B, l.DistanceKm)
}
