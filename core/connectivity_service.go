package core

import "math"

// StarSeamLatitudeDeg is the latitude above which Star-pattern satellites
// drop their cross-plane links.
const StarSeamLatitudeDeg = 70.0

// satState is the per-step view of a satellite used while rebuilding links.
type satState struct {
	position  Vec3
	latDeg    float64
	ascending bool
}

func (c *Constellation) snapshot() []satState {
	out := make([]satState, len(c.satellites))
	for i, s := range c.satellites {
		out[i] = satState{
			position:  s.Position(),
			latDeg:    s.LatitudeDeg(),
			ascending: s.Ascending(),
		}
	}
	return out
}

// islCandidates returns every grid link the current geometry allows,
// before pair deduplication: one top link per satellite plus the right
// links the pattern permits.
func (c *Constellation) islCandidates(snap []satState) []NetworkLink {
	q := c.cfg.SatellitesPerPlane()
	p := c.cfg.Planes

	out := make([]NetworkLink, 0, 2*len(c.satellites))
	for _, sat := range c.satellites {
		nb := sat.Neighbors(q, p)
		out = append(out, islLink(snap, nb.ID, nb.Top))
		if c.rightLinkAllowed(snap, sat.plane, nb) {
			out = append(out, islLink(snap, nb.ID, nb.Right))
		}
	}
	return out
}

func (c *Constellation) rightLinkAllowed(snap []satState, plane uint32, nb Neighbors) bool {
	if c.cfg.Pattern == PatternDelta {
		return true
	}
	if plane == c.cfg.Planes-1 {
		return false
	}
	a, b := snap[nb.ID], snap[nb.Right]
	return math.Abs(a.latDeg) < StarSeamLatitudeDeg &&
		math.Abs(b.latDeg) < StarSeamLatitudeDeg &&
		a.ascending == b.ascending
}

func islLink(snap []satState, a, b NodeID) NetworkLink {
	return NetworkLink{
		Type:       LinkISL,
		A:          a,
		B:          b,
		DistanceKm: snap[a].position.DistanceTo(snap[b].position),
	}
}

// RecomputeISL rebuilds the inter-satellite links from current positions,
// leaving ground links untouched. It returns the number of ISLs stored.
func (c *Constellation) RecomputeISL() int {
	return c.recomputeISL(c.snapshot())
}

func (c *Constellation) recomputeISL(snap []satState) int {
	return c.links.Replace(LinkISL, c.islCandidates(snap))
}

// RecomputeGSL rebuilds the ground-to-satellite links: one per
// (station, satellite) pair whose elevation is at or above the station's mask.
// Inter-satellite links are untouched. It returns the number of GSLs stored.
func (c *Constellation) RecomputeGSL() int {
	return c.recomputeGSL(c.snapshot())
}

func (c *Constellation) recomputeGSL(snap []satState) int {
	var batch []NetworkLink
	for _, gs := range c.groundStations {
		for i, s := range snap {
			if !gs.visibleAt(s.position) {
				continue
			}
			batch = append(batch, NetworkLink{
				Type:       LinkGSL,
				A:          gs.id,
				B:          c.satellites[i].id,
				DistanceKm: gs.position.DistanceTo(s.position),
			})
		}
	}
	return c.links.Replace(LinkGSL, batch)
}
