package nbi

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/walker-mesh/core"
)

// ErrInvalidRequest marks a request message that is missing fields or has
// fields of the wrong shape.
var ErrInvalidRequest = errors.New("invalid request")

// Position frames accepted by GetPositions.
const (
	FrameECEF     = "ecef"
	FrameGeodetic = "geodetic"
)

// GroundStationRequest is the decoded AddGroundStation payload.
type GroundStationRequest struct {
	Name            string
	LatDeg          float64
	LonDeg          float64
	AltKm           float64
	MinElevationDeg *float64
}

// ValidateGroundStationStruct decodes an AddGroundStation payload:
// {name: string, lat: number, lon: number, alt?: number, min_elevation?: number}.
// Range checks are left to the engine.
func ValidateGroundStationStruct(in *structpb.Struct) (GroundStationRequest, error) {
	var req GroundStationRequest
	if in == nil {
		return req, fmt.Errorf("%w: ground station is required", ErrInvalidRequest)
	}
	f := in.GetFields()

	name, ok := f["name"].GetKind().(*structpb.Value_StringValue)
	if !ok || strings.TrimSpace(name.StringValue) == "" {
		return req, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	req.Name = name.StringValue

	var err error
	if req.LatDeg, err = requiredNumber(f, "lat"); err != nil {
		return req, err
	}
	if req.LonDeg, err = requiredNumber(f, "lon"); err != nil {
		return req, err
	}
	if v, present, err := optionalNumber(f, "alt"); err != nil {
		return req, err
	} else if present {
		req.AltKm = v
	}
	if v, present, err := optionalNumber(f, "min_elevation"); err != nil {
		return req, err
	} else if present {
		req.MinElevationDeg = &v
	}

	for key := range f {
		switch key {
		case "name", "lat", "lon", "alt", "min_elevation":
		default:
			return req, fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, key)
		}
	}
	return req, nil
}

// ValidateDistanceStruct decodes a Distance payload {a: number, b: number}.
func ValidateDistanceStruct(in *structpb.Struct) (core.NodeID, core.NodeID, error) {
	if in == nil {
		return 0, 0, fmt.Errorf("%w: node pair is required", ErrInvalidRequest)
	}
	a, err := nodeIDField(in.GetFields(), "a")
	if err != nil {
		return 0, 0, err
	}
	b, err := nodeIDField(in.GetFields(), "b")
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// ValidateStepDuration converts a Step request into a time.Duration.
// Negative durations pass through so the engine reports them.
func ValidateStepDuration(in *durationpb.Duration) (time.Duration, error) {
	if in == nil {
		return 0, fmt.Errorf("%w: duration is required", ErrInvalidRequest)
	}
	if err := in.CheckValid(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return in.AsDuration(), nil
}

// ValidateFrame normalises the requested position frame. Empty means ECEF.
func ValidateFrame(in *wrapperspb.StringValue) (string, error) {
	frame := strings.ToLower(strings.TrimSpace(in.GetValue()))
	switch frame {
	case "", FrameECEF:
		return FrameECEF, nil
	case FrameGeodetic:
		return FrameGeodetic, nil
	default:
		return "", fmt.Errorf("%w: frame %q must be %q or %q", ErrInvalidRequest, frame, FrameECEF, FrameGeodetic)
	}
}

func requiredNumber(f map[string]*structpb.Value, key string) (float64, error) {
	v, present, err := optionalNumber(f, key)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidRequest, key)
	}
	return v, nil
}

func optionalNumber(f map[string]*structpb.Value, key string) (float64, bool, error) {
	raw, ok := f[key]
	if !ok {
		return 0, false, nil
	}
	n, ok := raw.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s must be a number", ErrInvalidRequest, key)
	}
	return n.NumberValue, true, nil
}

func nodeIDField(f map[string]*structpb.Value, key string) (core.NodeID, error) {
	v, err := requiredNumber(f, key)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %s must be a node id, got %v", ErrInvalidRequest, key, v)
	}
	return core.NodeID(v), nil
}
