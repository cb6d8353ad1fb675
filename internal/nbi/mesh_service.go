// internal/nbi/mesh_service.go
package nbi

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/signalsfoundry/walker-mesh/core"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	sim "github.com/signalsfoundry/walker-mesh/internal/sim/state"
)

// MeshService implements MeshServiceServer backed by a ConstellationState.
type MeshService struct {
	state *sim.ConstellationState
	log   logging.Logger
}

var _ MeshServiceServer = (*MeshService)(nil)

// NewMeshService constructs a MeshService bound to state.
func NewMeshService(state *sim.ConstellationState, log logging.Logger) *MeshService {
	if log == nil {
		log = logging.Noop()
	}
	return &MeshService{
		state: state,
		log:   log,
	}
}

// GetGraph returns the mesh in node-link form.
func (s *MeshService) GetGraph(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	g := s.state.Graph()

	_, span := StartChildSpan(ctx, "MeshService.encodeGraph", "graph", "",
		attribute.Int("walkermesh.nodes", len(g.Nodes)),
		attribute.Int("walkermesh.edges", len(g.Edges)),
	)
	defer span.End()

	out, err := structFromJSON(g)
	if err != nil {
		span.RecordError(err)
		return nil, ToStatusError(err)
	}
	return out, nil
}

// GetPositions returns every node's position keyed by NodeID, in the
// requested frame.
func (s *MeshService) GetPositions(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	frame, err := ValidateFrame(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	fields := make(map[string]any)
	if frame == FrameGeodetic {
		for id, p := range s.state.Geodetics() {
			fields[id.String()] = map[string]any{
				"kind":    string(rune(p.Kind)),
				"lat_deg": p.Geodetic.LatDeg,
				"lon_deg": p.Geodetic.LonDeg,
				"alt_km":  p.Geodetic.AltKm,
			}
		}
	} else {
		for id, p := range s.state.Positions() {
			fields[id.String()] = map[string]any{
				"kind": string(rune(p.Kind)),
				"x":    p.ECEF.X,
				"y":    p.ECEF.Y,
				"z":    p.ECEF.Z,
			}
		}
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// AddGroundStation registers a ground station and returns its NodeID.
func (s *MeshService) AddGroundStation(ctx context.Context, in *structpb.Struct) (*wrapperspb.UInt32Value, error) {
	ctx, reqLog := s.requestLogger(ctx, "add_ground_station")
	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	req, err := ValidateGroundStationStruct(in)
	if err != nil {
		reqLog.Debug(ctx, "AddGroundStation validation failed", logging.Err(err))
		return nil, ToStatusError(err)
	}

	var opts []core.GroundStationOption
	if req.MinElevationDeg != nil {
		opts = append(opts, core.WithMinElevation(*req.MinElevationDeg))
	}
	id, err := s.state.AddGroundStation(ctx, req.Name, req.LatDeg, req.LonDeg, req.AltKm, opts...)
	if err != nil {
		reqLog.Warn(ctx, "AddGroundStation rejected", logging.String("name", req.Name), logging.Err(err))
		return nil, ToStatusError(err)
	}
	return wrapperspb.UInt32(uint32(id)), nil
}

// Step advances the constellation and reports the resulting mesh size.
func (s *MeshService) Step(ctx context.Context, in *durationpb.Duration) (*structpb.Struct, error) {
	ctx, reqLog := s.requestLogger(ctx, "step")
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	d, err := ValidateStepDuration(in)
	if err != nil {
		return nil, ToStatusError(err)
	}

	res, err := s.state.Step(ctx, d)
	if err != nil {
		reqLog.Warn(ctx, "Step failed", logging.Duration("step", d), logging.Err(err))
		return nil, ToStatusError(err)
	}
	return stepResultStruct(res)
}

// NodeCount returns S + G.
func (s *MeshService) NodeCount(context.Context, *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	return wrapperspb.UInt32(s.state.NodeCount()), nil
}

// Distance returns the distance in kilometres between two nodes.
func (s *MeshService) Distance(ctx context.Context, in *structpb.Struct) (*wrapperspb.DoubleValue, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	a, b, err := ValidateDistanceStruct(in)
	if err != nil {
		return nil, ToStatusError(err)
	}
	d, err := s.state.Distance(a, b)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return wrapperspb.Double(d), nil
}

// GetContacts returns the link history of every pair ever linked.
func (s *MeshService) GetContacts(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}

	epoch, history := s.state.ContactSnapshot()
	contacts := make([]any, 0, len(history))
	for _, m := range history {
		contacts = append(contacts, map[string]any{
			"type":            m.Type.String(),
			"a":               float64(m.A),
			"b":               float64(m.B),
			"up":              m.Up,
			"since":           m.Since.UTC().Format(time.RFC3339Nano),
			"distance_km":     m.DistanceKm,
			"min_distance_km": m.MinDistanceKm,
			"contacts":        float64(m.Contacts),
		})
	}
	out, err := structpb.NewStruct(map[string]any{
		"epoch":    epoch.UTC().Format(time.RFC3339Nano),
		"contacts": contacts,
	})
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

func (s *MeshService) ensureReady() error {
	if s == nil || s.state == nil {
		return status.Error(codes.FailedPrecondition, "constellation state is not configured")
	}
	return nil
}

// requestLogger prefers the logger installed by RequestIDUnaryServerInterceptor.
func (s *MeshService) requestLogger(ctx context.Context, op string) (context.Context, logging.Logger) {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return ctx, l.With(logging.String("operation", op))
	}
	ctx, l := logging.WithRequestLogger(ctx, s.log)
	return ctx, l.With(logging.String("operation", op))
}

func stepResultStruct(res core.StepResult) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"epoch":      res.Epoch.UTC().Format(time.RFC3339Nano),
		"node_count": float64(res.NodeCount),
		"isl_links":  float64(res.ISLLinks),
		"gsl_links":  float64(res.GSLLinks),
	})
}

// structFromJSON converts any JSON-encodable value with an object at the top
// level into a Struct.
func structFromJSON(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

// GraphFromStruct decodes a GetGraph response.
func GraphFromStruct(in *structpb.Struct) (core.Graph, error) {
	var g core.Graph
	raw, err := protojson.Marshal(in)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, err
	}
	return g, nil
}

// GroundStationStruct builds an AddGroundStation request.
func GroundStationStruct(name string, latDeg, lonDeg, altKm float64, minElevationDeg *float64) *structpb.Struct {
	fields := map[string]*structpb.Value{
		"name": structpb.NewStringValue(name),
		"lat":  structpb.NewNumberValue(latDeg),
		"lon":  structpb.NewNumberValue(lonDeg),
		"alt":  structpb.NewNumberValue(altKm),
	}
	if minElevationDeg != nil {
		fields["min_elevation"] = structpb.NewNumberValue(*minElevationDeg)
	}
	return &structpb.Struct{Fields: fields}
}

// DistanceStruct builds a Distance request.
func DistanceStruct(a, b core.NodeID) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"a": structpb.NewNumberValue(float64(a)),
		"b": structpb.NewNumberValue(float64(b)),
	}}
}

// NodeKey formats a NodeID as the key used in GetPositions responses.
func NodeKey(id core.NodeID) string {
	return strconv.FormatUint(uint64(id), 10)
}
