package core

import (
	"math"
	"testing"
)

func TestRecompute_TypesAreIndependent(t *testing.T) {
	c := mustNew(t, deltaShell(), twoBody())
	if _, err := c.AddGroundStation("open-sky", 0, 0, 0, WithMinElevation(-90)); err != nil {
		t.Fatalf("AddGroundStation: %v", err)
	}
	isl := sortedLinks(c.LinksOfType(LinkISL))
	gsl := sortedLinks(c.LinksOfType(LinkGSL))
	if len(isl) == 0 || len(gsl) == 0 {
		t.Fatalf("expected both link types, got isl=%d gsl=%d", len(isl), len(gsl))
	}

	if n := c.RecomputeGSL(); n != len(gsl) {
		t.Fatalf("RecomputeGSL = %d, want %d", n, len(gsl))
	}
	if got := sortedLinks(c.LinksOfType(LinkISL)); len(got) != len(isl) {
		t.Fatalf("RecomputeGSL touched ISLs: %d -> %d", len(isl), len(got))
	}

	if n := c.RecomputeISL(); n != len(isl) {
		t.Fatalf("RecomputeISL = %d, want %d", n, len(isl))
	}
	got := sortedLinks(c.LinksOfType(LinkGSL))
	for i := range gsl {
		if got[i] != gsl[i] {
			t.Fatalf("RecomputeISL changed GSL %d: %v -> %v", i, gsl[i], got[i])
		}
	}
}

func TestRecomputeISL_DistancesMatchPositions(t *testing.T) {
	c := mustNew(t, deltaShell(), twoBody())
	for _, l := range c.LinksOfType(LinkISL) {
		d, err := c.Distance(l.A, l.B)
		if err != nil {
			t.Fatalf("Distance: %v", err)
		}
		if math.Abs(d-l.DistanceKm) > 1e-9 {
			t.Fatalf("link %v distance %v, Distance() %v", l, l.DistanceKm, d)
		}
	}
}

func TestRightLinkAllowed_DeltaIgnoresGeometry(t *testing.T) {
	cfg := deltaShell()
	model := stubModel{
		raanStep:   math.Pi,
		latDeg:     map[int]float64{1: 85},
		descending: map[int]bool{1: true},
	}
	c := mustNew(t, cfg, model)

	// 8 tops + 4 unique rights regardless of latitude or direction
	if got := c.LinkCount(LinkISL); got != 12 {
		t.Fatalf("expected 12 ISLs for Delta, got %d", got)
	}
}
