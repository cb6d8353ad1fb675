package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/signalsfoundry/walker-mesh/core"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/orbit"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newConstellationForTest(t *testing.T, model orbit.Model) *core.Constellation {
	t.Helper()
	if model == nil {
		model = orbit.NewTwoBody(orbit.EarthFrame())
	}
	c, err := core.New(core.ShellConfig{
		Pattern:         core.PatternDelta,
		Satellites:      24,
		Planes:          4,
		Phasing:         1,
		AltitudeKm:      550,
		InclinationDeg:  53,
		MinElevationDeg: 10,
		Epoch:           testEpoch,
	}, model)
	if err != nil {
		t.Fatalf("core.New: %v", err)
	}
	return c
}

type countsSnapshot struct {
	satellites, groundStations, isl, gsl int
}

type stubMetricsRecorder struct {
	mu     sync.Mutex
	counts []countsSnapshot
	steps  []error
}

func (r *stubMetricsRecorder) ObserveStep(_ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, err)
}

func (r *stubMetricsRecorder) SetMeshCounts(satellites, groundStations, isl, gsl int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, countsSnapshot{satellites, groundStations, isl, gsl})
}

func (r *stubMetricsRecorder) last() countsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return countsSnapshot{}
	}
	return r.counts[len(r.counts)-1]
}

type failingModel struct {
	orbit.Model
}

var errDiverged = errors.New("diverged")

func (failingModel) Propagate(orbit.Orbit, time.Duration) (orbit.Orbit, error) {
	return orbit.Orbit{}, errDiverged
}

func TestConstellationStateMetricsRecorder(t *testing.T) {
	recorder := &stubMetricsRecorder{}
	s := NewConstellationState(newConstellationForTest(t, nil), logging.Noop(), WithMetricsRecorder(recorder))

	got := recorder.last()
	if got.satellites != 24 || got.groundStations != 0 || got.isl == 0 || got.gsl != 0 {
		t.Fatalf("initial counts = %+v", got)
	}

	if _, err := s.AddGroundStation(context.Background(), "open-sky", 0, 0, 0, core.WithMinElevation(-90)); err != nil {
		t.Fatalf("AddGroundStation: %v", err)
	}
	got = recorder.last()
	if got.groundStations != 1 || got.gsl == 0 {
		t.Fatalf("counts after add = %+v", got)
	}

	res, err := s.Step(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	got = recorder.last()
	if got.isl != res.ISLLinks || got.gsl != res.GSLLinks {
		t.Fatalf("counts %+v disagree with step result %+v", got, res)
	}
	if len(recorder.steps) != 1 || recorder.steps[0] != nil {
		t.Fatalf("step observations = %v", recorder.steps)
	}
}

func TestConstellationStateStepFailure(t *testing.T) {
	recorder := &stubMetricsRecorder{}
	model := failingModel{Model: orbit.NewTwoBody(orbit.EarthFrame())}
	s := NewConstellationState(newConstellationForTest(t, model), nil, WithMetricsRecorder(recorder))

	_, err := s.Step(context.Background(), time.Minute)
	if !errors.Is(err, core.ErrPropagation) || !errors.Is(err, errDiverged) {
		t.Fatalf("expected propagation error, got %v", err)
	}
	if !s.Epoch().Equal(testEpoch) {
		t.Fatalf("epoch moved on failed step")
	}
	if len(recorder.steps) != 1 || recorder.steps[0] == nil {
		t.Fatalf("failed step not observed: %v", recorder.steps)
	}
}

func TestConstellationStateSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(rec))
	s := NewConstellationState(newConstellationForTest(t, nil), nil, WithTracer(tp.Tracer("test")))

	if _, err := s.Step(context.Background(), 30*time.Second); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if _, err := s.AddGroundStation(context.Background(), "", 0, 0, 0); !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "walkermesh.Step" || spans[1].Name() != "walkermesh.AddGroundStation" {
		t.Fatalf("unexpected span names %q, %q", spans[0].Name(), spans[1].Name())
	}
	if len(spans[1].Events()) == 0 {
		t.Fatalf("expected the failed add to record an error event")
	}
}

// TestStepAndReadsConcurrently exercises a stepping loop alongside readers
// to verify reads see whole steps only.
func TestStepAndReadsConcurrently(t *testing.T) {
	s := NewConstellationState(newConstellationForTest(t, nil), logging.Noop())
	if _, err := s.AddGroundStation(context.Background(), "quito", -0.18, -78.47, 2.8); err != nil {
		t.Fatalf("AddGroundStation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := s.Step(ctx, 15*time.Second); err != nil {
				t.Errorf("Step: %v", err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				err := s.WithReadLock(func(c *core.Constellation) error {
					g := c.ExportGraph()
					if len(g.Nodes) != int(c.NodeCount()) {
						t.Errorf("graph nodes %d, node count %d", len(g.Nodes), c.NodeCount())
					}
					isl, gsl := c.LinkCount(core.LinkISL), c.LinkCount(core.LinkGSL)
					if len(g.Edges) != isl+gsl {
						t.Errorf("graph edges %d, links %d", len(g.Edges), isl+gsl)
					}
					return nil
				})
				if err != nil {
					t.Errorf("WithReadLock: %v", err)
				}
				if _, err := s.Distance(0, 24); err != nil {
					t.Errorf("Distance: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if want := testEpoch.Add(20 * 15 * time.Second); !s.Epoch().Equal(want) {
		t.Fatalf("epoch = %v, want %v", s.Epoch(), want)
	}
}

func TestConstellationStateQueries(t *testing.T) {
	s := NewConstellationState(newConstellationForTest(t, nil), nil)
	id, err := s.AddGroundStation(context.Background(), "svalbard", 78.23, 15.39, 0.5)
	if err != nil {
		t.Fatalf("AddGroundStation: %v", err)
	}
	if s.NodeCount() != 25 || id != 24 {
		t.Fatalf("NodeCount = %d, id = %d", s.NodeCount(), id)
	}
	if got := len(s.Positions()); got != 25 {
		t.Fatalf("Positions size %d", got)
	}
	if geo := s.Geodetics()[id]; geo.Kind != core.KindGroundStation || geo.Geodetic.LatDeg != 78.23 {
		t.Fatalf("station projection = %+v", geo)
	}
	isl, _ := s.LinkCounts()
	if g := s.Graph(); len(g.Edges) < isl {
		t.Fatalf("graph has %d edges, %d ISLs", len(g.Edges), isl)
	}
	if _, err := s.Distance(0, 99); !errors.Is(err, core.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

func TestStepResultAndContactsMatchCommittedMesh(t *testing.T) {
	s := NewConstellationState(newConstellationForTest(t, nil), logging.Noop())
	ctx := context.Background()

	const stations = 10
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < stations; i++ {
			if _, err := s.AddGroundStation(ctx, "gs", float64(i*8-40), float64(i*30-150), 0); err != nil {
				t.Errorf("AddGroundStation: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		var last uint32
		for i := 0; i < 20; i++ {
			res, err := s.Step(ctx, 30*time.Second)
			if err != nil {
				t.Errorf("Step: %v", err)
				return
			}
			if res.NodeCount < 24 || res.NodeCount > 24+stations || res.NodeCount < last {
				t.Errorf("step %d node count %d (previous %d)", i, res.NodeCount, last)
			}
			last = res.NodeCount

			epoch, history := s.ContactSnapshot()
			for _, m := range history {
				if m.Since.After(epoch) {
					t.Errorf("contact %d-%d since %v is newer than epoch %v", m.A, m.B, m.Since, epoch)
				}
			}
		}
	}()
	wg.Wait()

	res, err := s.Step(ctx, 0)
	if err != nil {
		t.Fatalf("Step(0): %v", err)
	}
	if res.NodeCount != 24+stations || res.NodeCount != s.NodeCount() {
		t.Fatalf("final node count %d, state reports %d", res.NodeCount, s.NodeCount())
	}
}
