package core

// LinkMesh stores the current links of every type. Replacing one type
// keeps the other type's links, in order, ahead of the new batch.
//
// Within a mesh each unordered endpoint pair appears at most once and no
// link joins a node to itself.
type LinkMesh struct {
	links []NetworkLink
	pairs map[linkKey]struct{}
}

// NewLinkMesh returns an empty mesh.
func NewLinkMesh() *LinkMesh {
	return &LinkMesh{pairs: make(map[linkKey]struct{})}
}

// Replace discards every link of type t, then appends the given links in
// order. Links of another type, self-links and pairs already present are
// skipped. It returns the number of links stored.
func (m *LinkMesh) Replace(t LinkType, batch []NetworkLink) int {
	kept := m.links[:0]
	clear(m.pairs)
	for _, l := range m.links {
		if l.Type != t {
			kept = append(kept, l)
			m.pairs[l.key()] = struct{}{}
		}
	}
	// drop references held past the new length
	clear(m.links[len(kept):])
	m.links = kept

	added := 0
	for _, l := range batch {
		if l.Type != t || l.A == l.B {
			continue
		}
		k := l.key()
		if _, dup := m.pairs[k]; dup {
			continue
		}
		m.pairs[k] = struct{}{}
		m.links = append(m.links, l)
		added++
	}
	return added
}

// Links returns a copy of all links in mesh order.
func (m *LinkMesh) Links() []NetworkLink {
	out := make([]NetworkLink, len(m.links))
	copy(out, m.links)
	return out
}

// OfType returns a copy of the links of type t in mesh order.
func (m *LinkMesh) OfType(t LinkType) []NetworkLink {
	var out []NetworkLink
	for _, l := range m.links {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}

// Count returns the number of links of type t.
func (m *LinkMesh) Count(t LinkType) int {
	n := 0
	for _, l := range m.links {
		if l.Type == t {
			n++
		}
	}
	return n
}

// Len returns the total number of links.
func (m *LinkMesh) Len() int { return len(m.links) }

// Has reports whether a and b are linked, in either orientation.
func (m *LinkMesh) Has(a, b NodeID) bool {
	_, ok := m.pairs[NetworkLink{A: a, B: b}.key()]
	return ok
}
