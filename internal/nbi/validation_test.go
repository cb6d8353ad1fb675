package nbi

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestValidateGroundStationStruct(t *testing.T) {
	minEl := 15.0
	req, err := ValidateGroundStationStruct(GroundStationStruct("hawaii", 19.8, -155.5, 4.2, &minEl))
	if err != nil {
		t.Fatalf("ValidateGroundStationStruct: %v", err)
	}
	if req.Name != "hawaii" || req.LatDeg != 19.8 || req.LonDeg != -155.5 || req.AltKm != 4.2 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.MinElevationDeg == nil || *req.MinElevationDeg != 15 {
		t.Fatalf("MinElevationDeg = %v, want 15", req.MinElevationDeg)
	}

	noAlt, err := structpb.NewStruct(map[string]any{"name": "x", "lat": 1.0, "lon": 2.0})
	if err != nil {
		t.Fatal(err)
	}
	req, err = ValidateGroundStationStruct(noAlt)
	if err != nil {
		t.Fatalf("ValidateGroundStationStruct without alt: %v", err)
	}
	if req.AltKm != 0 || req.MinElevationDeg != nil {
		t.Fatalf("optional fields not defaulted: %+v", req)
	}
}

func TestValidateGroundStationStructRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"nil name", map[string]any{"lat": 1.0, "lon": 2.0}},
		{"blank name", map[string]any{"name": "  ", "lat": 1.0, "lon": 2.0}},
		{"missing lat", map[string]any{"name": "a", "lon": 2.0}},
		{"lat as string", map[string]any{"name": "a", "lat": "north", "lon": 2.0}},
		{"unknown field", map[string]any{"name": "a", "lat": 1.0, "lon": 2.0, "mask": 5.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := structpb.NewStruct(tt.fields)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := ValidateGroundStationStruct(in); !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("error = %v, want ErrInvalidRequest", err)
			}
		})
	}
	if _, err := ValidateGroundStationStruct(nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("nil struct error = %v, want ErrInvalidRequest", err)
	}
}

func TestValidateDistanceStruct(t *testing.T) {
	a, b, err := ValidateDistanceStruct(DistanceStruct(3, 7))
	if err != nil || a != 3 || b != 7 {
		t.Fatalf("ValidateDistanceStruct = (%d, %d, %v), want (3, 7, nil)", a, b, err)
	}

	for name, v := range map[string]float64{"negative": -1, "fractional": 1.5, "too large": 1 << 33} {
		in := &structpb.Struct{Fields: map[string]*structpb.Value{
			"a": structpb.NewNumberValue(0),
			"b": structpb.NewNumberValue(v),
		}}
		if _, _, err := ValidateDistanceStruct(in); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: error = %v, want ErrInvalidRequest", name, err)
		}
	}
}

func TestValidateStepDuration(t *testing.T) {
	d, err := ValidateStepDuration(durationpb.New(90 * time.Second))
	if err != nil || d != 90*time.Second {
		t.Fatalf("ValidateStepDuration = (%v, %v)", d, err)
	}
	if _, err := ValidateStepDuration(nil); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("nil duration error = %v", err)
	}
	bad := &durationpb.Duration{Seconds: 1, Nanos: -1}
	if _, err := ValidateStepDuration(bad); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("malformed duration error = %v", err)
	}
}

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		in   *wrapperspb.StringValue
		want string
		ok   bool
	}{
		{nil, FrameECEF, true},
		{wrapperspb.String("ECEF"), FrameECEF, true},
		{wrapperspb.String(" geodetic "), FrameGeodetic, true},
		{wrapperspb.String("eci"), "", false},
	}
	for _, tt := range tests {
		got, err := ValidateFrame(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ValidateFrame(%v) = (%q, %v)", tt.in, got, err)
		}
	}
}
