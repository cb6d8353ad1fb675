package state

import (
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/walker-mesh/core"
)

// LinkMetrics is the contact history of one endpoint pair.
type LinkMetrics struct {
	Type core.LinkType
	// A and B are ordered A < B regardless of link orientation.
	A, B core.NodeID

	// Up reports whether the pair was linked at the last observation.
	Up bool

	// Since is the epoch of the last up/down transition.
	Since time.Time

	// DistanceKm is the last observed distance while up.
	DistanceKm float64

	// MinDistanceKm is the closest approach during the current or most
	// recent contact.
	MinDistanceKm float64

	// Contacts counts how many times the link has come up.
	Contacts int
}

// TelemetryState is a concurrency-safe store of per-pair link history,
// fed with the mesh after every committed change.
type TelemetryState struct {
	mu     sync.RWMutex
	byPair map[pairKey]*LinkMetrics
}

type pairKey struct {
	lo, hi core.NodeID
}

func newPairKey(a, b core.NodeID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// NewTelemetryState creates an empty TelemetryState.
func NewTelemetryState() *TelemetryState {
	return &TelemetryState{
		byPair: make(map[pairKey]*LinkMetrics),
	}
}

// Observe records the mesh at epoch: listed pairs are up, every other known
// pair is down.
func (t *TelemetryState) Observe(epoch time.Time, links []core.NetworkLink) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[pairKey]struct{}, len(links))
	for _, l := range links {
		key := newPairKey(l.A, l.B)
		seen[key] = struct{}{}

		m, ok := t.byPair[key]
		if !ok {
			m = &LinkMetrics{Type: l.Type, A: key.lo, B: key.hi}
			t.byPair[key] = m
		}
		if !m.Up {
			m.Up = true
			m.Since = epoch
			m.Contacts++
			m.MinDistanceKm = l.DistanceKm
		}
		m.DistanceKm = l.DistanceKm
		if l.DistanceKm < m.MinDistanceKm {
			m.MinDistanceKm = l.DistanceKm
		}
	}

	for key, m := range t.byPair {
		if _, ok := seen[key]; ok || !m.Up {
			continue
		}
		m.Up = false
		m.Since = epoch
	}
}

// GetMetrics returns a copy of the history for the pair (a, b) in either
// orientation, or nil if the pair has never been linked.
func (t *TelemetryState) GetMetrics(a, b core.NodeID) *LinkMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, ok := t.byPair[newPairKey(a, b)]
	if !ok || m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// ListAll returns copies of every tracked pair ordered by (A, B).
func (t *TelemetryState) ListAll() []*LinkMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*LinkMetrics, 0, len(t.byPair))
	for _, v := range t.byPair {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// ActiveContacts returns the pairs of type typ that are currently up.
func (t *TelemetryState) ActiveContacts(typ core.LinkType) []*LinkMetrics {
	var out []*LinkMetrics
	for _, m := range t.ListAll() {
		if m.Up && m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}
