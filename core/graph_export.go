package core

// Graph is the node-link form of the mesh, matching the JSON layout
// networkx reads with node_link_graph.
type Graph struct {
	Directed   bool           `json:"directed"`
	Multigraph bool           `json:"multigraph"`
	Attrs      map[string]any `json:"graph"`
	Nodes      []GraphNode    `json:"nodes"`
	Edges      []GraphEdge    `json:"links"`
}

type GraphNode struct {
	ID NodeID `json:"id"`
}

type GraphEdge struct {
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
	Weight int    `json:"weight"` // kilometres, rounded
}

// ExportGraph returns an undirected graph with one node per NodeID and one
// edge per current link, weighted by rounded distance.
func (c *Constellation) ExportGraph() Graph {
	g := Graph{
		Attrs: map[string]any{},
		Nodes: make([]GraphNode, 0, c.NodeCount()),
		Edges: make([]GraphEdge, 0, c.links.Len()),
	}
	for id := NodeID(0); id < c.nextFreeID; id++ {
		g.Nodes = append(g.Nodes, GraphNode{ID: id})
	}
	for _, l := range c.links.links {
		g.Edges = append(g.Edges, GraphEdge{Source: l.A, Target: l.B, Weight: l.Weight()})
	}
	return g
}

// NodeProjection is a node's position at the current epoch in both the
// Earth-fixed and geodetic frames.
type NodeProjection struct {
	ID       NodeID   `json:"id"`
	Kind     NodeKind `json:"kind"`
	ECEF     Vec3     `json:"ecef"`
	Geodetic Geodetic `json:"geodetic"`
}

// Positions returns the Earth-fixed position of every node keyed by ID.
func (c *Constellation) Positions() map[NodeID]NodeProjection {
	out := make(map[NodeID]NodeProjection, c.NodeCount())
	for _, s := range c.satellites {
		out[s.id] = NodeProjection{ID: s.id, Kind: KindSatellite, ECEF: s.Position()}
	}
	for _, gs := range c.groundStations {
		out[gs.id] = NodeProjection{ID: gs.id, Kind: KindGroundStation, ECEF: gs.position}
	}
	return out
}

// Geodetics returns the latitude, longitude and altitude of every node
// keyed by ID.
func (c *Constellation) Geodetics() map[NodeID]NodeProjection {
	out := make(map[NodeID]NodeProjection, c.NodeCount())
	for _, s := range c.satellites {
		out[s.id] = NodeProjection{ID: s.id, Kind: KindSatellite, Geodetic: s.Geodetic()}
	}
	for _, gs := range c.groundStations {
		out[gs.id] = NodeProjection{ID: gs.id, Kind: KindGroundStation, Geodetic: gs.site}
	}
	return out
}
