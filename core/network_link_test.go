package core

import "testing"

func TestNetworkLinkWeight(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{0, 0},
		{1234.49, 1234},
		{1234.5, 1235},
		{5015.9, 5016},
	}
	for _, tc := range cases {
		if got := (NetworkLink{DistanceKm: tc.km}).Weight(); got != tc.want {
			t.Errorf("Weight(%v) = %d, want %d", tc.km, got, tc.want)
		}
	}
}

func TestNetworkLinkKeyIgnoresOrientation(t *testing.T) {
	ab := NetworkLink{A: 3, B: 11}
	ba := NetworkLink{A: 11, B: 3}
	if ab.key() != ba.key() {
		t.Fatalf("key differs by orientation: %v vs %v", ab.key(), ba.key())
	}
	if !ab.Connects(11) || ab.Connects(4) {
		t.Fatalf("Connects misreports endpoints")
	}
}

func TestLinkTypeString(t *testing.T) {
	if LinkISL.String() != "isl" || LinkGSL.String() != "gsl" {
		t.Fatalf("unexpected names %q %q", LinkISL, LinkGSL)
	}
}
