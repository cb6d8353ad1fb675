package core

import (
	"sort"
	"testing"
)

func sortedLinks(in []NetworkLink) []NetworkLink {
	out := append([]NetworkLink(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

func TestLinkMesh_ReplaceKeepsOtherType(t *testing.T) {
	m := NewLinkMesh()
	m.Replace(LinkISL, []NetworkLink{
		{Type: LinkISL, A: 0, B: 1, DistanceKm: 10},
		{Type: LinkISL, A: 1, B: 2, DistanceKm: 20},
	})
	m.Replace(LinkGSL, []NetworkLink{
		{Type: LinkGSL, A: 5, B: 0, DistanceKm: 900},
	})

	n := m.Replace(LinkISL, []NetworkLink{
		{Type: LinkISL, A: 2, B: 3, DistanceKm: 30},
	})
	if n != 1 {
		t.Fatalf("Replace returned %d, want 1", n)
	}

	got := m.Links()
	want := []NetworkLink{
		{Type: LinkGSL, A: 5, B: 0, DistanceKm: 900},
		{Type: LinkISL, A: 2, B: 3, DistanceKm: 30},
	}
	if len(got) != len(want) {
		t.Fatalf("links = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("link %d = %v, want %v", i, got[i], want[i])
		}
	}
	if m.Has(0, 1) {
		t.Fatalf("replaced ISL 0-1 still present")
	}
	if !m.Has(0, 5) || !m.Has(3, 2) {
		t.Fatalf("Has should ignore orientation")
	}
}

func TestLinkMesh_SkipsSelfLinksAndDuplicates(t *testing.T) {
	m := NewLinkMesh()
	n := m.Replace(LinkISL, []NetworkLink{
		{Type: LinkISL, A: 0, B: 1, DistanceKm: 1},
		{Type: LinkISL, A: 1, B: 0, DistanceKm: 2},
		{Type: LinkISL, A: 3, B: 3},
		{Type: LinkGSL, A: 4, B: 0},
		{Type: LinkISL, A: 0, B: 1, DistanceKm: 3},
	})
	if n != 1 || m.Len() != 1 {
		t.Fatalf("stored %d links (len %d), want 1", n, m.Len())
	}
	if got := m.Links()[0].DistanceKm; got != 1 {
		t.Fatalf("expected the first occurrence to win, got distance %v", got)
	}
}

func TestLinkMesh_CrossTypePairIsNotDuplicated(t *testing.T) {
	m := NewLinkMesh()
	m.Replace(LinkGSL, []NetworkLink{{Type: LinkGSL, A: 9, B: 2}})
	if n := m.Replace(LinkISL, []NetworkLink{{Type: LinkISL, A: 2, B: 9}}); n != 0 {
		t.Fatalf("pair already linked by GSL was stored again")
	}
	if m.Count(LinkGSL) != 1 || m.Count(LinkISL) != 0 {
		t.Fatalf("unexpected counts isl=%d gsl=%d", m.Count(LinkISL), m.Count(LinkGSL))
	}
}

func TestLinkMesh_CopiesAreIndependent(t *testing.T) {
	m := NewLinkMesh()
	m.Replace(LinkISL, []NetworkLink{{Type: LinkISL, A: 0, B: 1}})
	got := m.OfType(LinkISL)
	got[0].A = 7
	if m.Links()[0].A != 0 {
		t.Fatalf("OfType leaked internal storage")
	}
}
