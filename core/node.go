package core

import "strconv"

// NodeID identifies a satellite or ground station. Satellites occupy
// [0, S) and ground stations [S, S+G) in insertion order.
type NodeID uint32

func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// NodeKind tags a node as a satellite or a ground station.
type NodeKind byte

const (
	KindSatellite     NodeKind = 'S'
	KindGroundStation NodeKind = 'G'
)

func (k NodeKind) String() string {
	switch k {
	case KindSatellite:
		return "satellite"
	case KindGroundStation:
		return "groundstation"
	default:
		return "unknown"
	}
}

// nodeRef is a resolved NodeID: the owning collection and the index in it.
type nodeRef struct {
	kind  NodeKind
	index int
}

// resolve maps id onto the satellite or ground-station collection.
func (c *Constellation) resolve(id NodeID) (nodeRef, error) {
	if id >= c.nextFreeID {
		return nodeRef{}, &LookupError{ID: id, NodeCount: c.NodeCount()}
	}
	if uint32(id) < c.cfg.Satellites {
		return nodeRef{kind: KindSatellite, index: int(id)}, nil
	}
	return nodeRef{kind: KindGroundStation, index: int(uint32(id) - c.cfg.Satellites)}, nil
}

// position returns the Earth-fixed position of a resolved node.
func (c *Constellation) position(ref nodeRef) Vec3 {
	if ref.kind == KindSatellite {
		return c.satellites[ref.index].Position()
	}
	return c.groundStations[ref.index].Position()
}

// nextID hands out the next free ground-station ID. AddGroundStation is
// its only caller, so every returned ID is used exactly once.
func (c *Constellation) nextID() NodeID {
	id := c.nextFreeID
	c.nextFreeID++
	return id
}
