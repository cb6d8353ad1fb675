package orbit

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestSyntheticTLE_Layout(t *testing.T) {
	line1, line2, err := SyntheticTLE(42, circular(550, 53, 120, 30), EarthFrame())
	if err != nil {
		t.Fatalf("SyntheticTLE: %v", err)
	}
	if err := validateTLELines(line1, line2); err != nil {
		t.Fatalf("validateTLELines: %v\n%s\n%s", err, line1, line2)
	}

	for _, line := range []string{line1, line2} {
		body, sum := line[:68], line[68:]
		if want := tleChecksum(body); sum != want {
			t.Errorf("checksum of %q = %s, want %s", line, sum, want)
		}
	}

	if got := strings.TrimSpace(line2[8:16]); got != "53.0000" {
		t.Errorf("inclination field = %q, want 53.0000", got)
	}
	if got := strings.TrimSpace(line2[17:25]); got != "120.0000" {
		t.Errorf("RAAN field = %q, want 120.0000", got)
	}
	if got := strings.TrimSpace(line2[43:51]); got != "30.0000" {
		t.Errorf("mean anomaly field = %q, want 30.0000", got)
	}
	if got := line1[18:20]; got != "24" {
		t.Errorf("epoch year field = %q, want 24", got)
	}
}

func TestSyntheticTLE_Rejects(t *testing.T) {
	if _, _, err := SyntheticTLE(1, circular(-1, 53, 0, 0), EarthFrame()); !errors.Is(err, ErrInvalidElements) {
		t.Errorf("negative altitude error = %v, want ErrInvalidElements", err)
	}
	if _, _, err := SyntheticTLE(100000, circular(550, 53, 0, 0), EarthFrame()); !errors.Is(err, ErrInvalidElements) {
		t.Errorf("oversized catalogue number error = %v, want ErrInvalidElements", err)
	}
}

func TestSGP4_PropagatesNearShellRadius(t *testing.T) {
	m := NewSGP4(EarthFrame())
	o, err := m.NewOrbit(circular(550, 53, 40, 10))
	if err != nil {
		t.Fatalf("NewOrbit: %v", err)
	}

	want := EarthFrame().EquatorialRadiusKm + 550
	for i := 0; i < 5; i++ {
		// SGP4 mean elements differ from osculating ones by a few km.
		if got := o.Position.Norm(); math.Abs(got-want) > 30 {
			t.Fatalf("step %d: radius = %.1f km, want ~%.1f", i, got, want)
		}
		next, err := m.Propagate(o, 5*time.Minute)
		if err != nil {
			t.Fatalf("Propagate: %v", err)
		}
		if next.Position == o.Position {
			t.Fatalf("step %d: position did not change", i)
		}
		o = next
	}

	if _, _, ok := m.TLE(o); !ok {
		t.Fatal("expected propagated orbit to keep its element set")
	}
}

func TestSGP4_AssignsDistinctCatalogueNumbers(t *testing.T) {
	m := NewSGP4(EarthFrame())
	a, err := m.NewOrbit(circular(550, 53, 0, 0))
	if err != nil {
		t.Fatalf("NewOrbit: %v", err)
	}
	b, err := m.NewOrbit(circular(550, 53, 0, 90))
	if err != nil {
		t.Fatalf("NewOrbit: %v", err)
	}
	la, _, _ := m.TLE(a)
	lb, _, _ := m.TLE(b)
	if la[2:7] == lb[2:7] {
		t.Fatalf("both orbits share catalogue number %s", la[2:7])
	}
}

func TestSGP4_SubSecondStepsMatchEpoch(t *testing.T) {
	m := NewSGP4(EarthFrame())
	start, err := m.NewOrbit(circular(550, 53, 20, 30))
	if err != nil {
		t.Fatalf("NewOrbit: %v", err)
	}
	whole, err := m.Propagate(start, time.Second)
	if err != nil {
		t.Fatalf("Propagate 1s: %v", err)
	}
	half, err := m.Propagate(start, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Propagate 500ms: %v", err)
	}

	gap := func(a, b Vector) float64 {
		return Vector{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}.Norm()
	}
	mid := func(a, b Vector) Vector {
		return Vector{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2, Z: (a.Z + b.Z) / 2}
	}

	// ~7.6 km/s: half a second is several km from either end.
	if d := gap(half.Position, start.Position); d < 3 {
		t.Fatalf("500ms step moved %.3f km, state was not advanced past the whole second", d)
	}
	if d := gap(half.Position, mid(start.Position, whole.Position)); d > 0.05 {
		t.Fatalf("inertial position %.3f km from the 0s/1s midpoint", d)
	}
	if d := gap(ECEF(half), mid(ECEF(start), ECEF(whole))); d > 0.05 {
		t.Fatalf("earth-fixed position %.3f km from the 0s/1s midpoint", d)
	}

	again, err := m.Propagate(half, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("second Propagate 500ms: %v", err)
	}
	if !again.Epoch.Equal(whole.Epoch) {
		t.Fatalf("epoch %v, want %v", again.Epoch, whole.Epoch)
	}
	if d := gap(again.Position, whole.Position); d > 1e-6 {
		t.Fatalf("two half steps land %.6f km from one whole step", d)
	}
}
