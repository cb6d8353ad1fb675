// internal/sim/state/state.go
package state

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/walker-mesh/core"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/internal/observability"
)

// ConstellationState owns one core.Constellation for long-running callers.
// Steps and ground-station additions take the write lock; every query takes
// the read lock, so readers never observe a half-rebuilt mesh.
type ConstellationState struct {
	mu sync.RWMutex

	c *core.Constellation

	// contacts tracks link up/down history across steps.
	contacts *TelemetryState

	// log is an optional structured logger for state-level events.
	log logging.Logger

	// metrics is an optional recorder for Prometheus-friendly gauges.
	metrics MeshMetricsRecorder

	tracer trace.Tracer
}

// MeshMetricsRecorder receives step outcomes and mesh sizes.
type MeshMetricsRecorder interface {
	ObserveStep(d time.Duration, err error)
	SetMeshCounts(satellites, groundStations, isl, gsl int)
}

// ConstellationStateOption customises ConstellationState construction.
type ConstellationStateOption func(*ConstellationState)

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MeshMetricsRecorder) ConstellationStateOption {
	return func(s *ConstellationState) {
		s.metrics = m
	}
}

// WithTracer overrides the tracer used for step and mutation spans.
func WithTracer(t trace.Tracer) ConstellationStateOption {
	return func(s *ConstellationState) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewConstellationState wraps c. The caller must not use c directly
// afterwards.
func NewConstellationState(c *core.Constellation, log logging.Logger, opts ...ConstellationStateOption) *ConstellationState {
	if log == nil {
		log = logging.Noop()
	}
	s := &ConstellationState{
		c:        c,
		contacts: NewTelemetryState(),
		log:      log,
		tracer:   observability.Tracer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.contacts.Observe(c.Epoch(), c.Links())
	s.updateMetricsLocked()
	return s
}

// WithReadLock executes fn with the constellation while holding the read
// lock. fn must not mutate the constellation or call back into s.
func (s *ConstellationState) WithReadLock(fn func(c *core.Constellation) error) error {
	if fn == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.c)
}

// Step advances the constellation by d.
func (s *ConstellationState) Step(ctx context.Context, d time.Duration) (core.StepResult, error) {
	ctx, span := s.tracer.Start(ctx, "walkermesh.Step",
		trace.WithAttributes(attribute.String("walkermesh.step", d.String())))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	res, err := s.c.Step(ctx, d)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveStep(elapsed, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Warn(ctx, "step failed",
			logging.Duration("step", d),
			logging.Time("epoch", s.c.Epoch()),
			logging.Err(err),
		)
		return core.StepResult{}, err
	}

	s.contacts.Observe(res.Epoch, s.c.Links())
	s.updateMetricsLocked()
	span.SetAttributes(
		attribute.Int("walkermesh.isl_links", res.ISLLinks),
		attribute.Int("walkermesh.gsl_links", res.GSLLinks),
	)
	s.log.Debug(ctx, "step applied",
		logging.Time("epoch", res.Epoch),
		logging.Duration("elapsed", elapsed),
		logging.Int("isl_links", res.ISLLinks),
		logging.Int("gsl_links", res.GSLLinks),
	)
	return res, nil
}

// AddGroundStation registers a ground station and rebuilds ground links.
func (s *ConstellationState) AddGroundStation(ctx context.Context, name string, latDeg, lonDeg, altKm float64, opts ...core.GroundStationOption) (core.NodeID, error) {
	ctx, span := s.tracer.Start(ctx, "walkermesh.AddGroundStation",
		trace.WithAttributes(attribute.String("walkermesh.ground_station", name)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.c.AddGroundStation(name, latDeg, lonDeg, altKm, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	s.contacts.Observe(s.c.Epoch(), s.c.Links())
	s.updateMetricsLocked()
	s.log.Info(ctx, "ground station added",
		logging.Int("id", int(id)),
		logging.String("name", name),
		logging.Float64("lat_deg", latDeg),
		logging.Float64("lon_deg", lonDeg),
	)
	return id, nil
}

// Graph exports the current mesh.
func (s *ConstellationState) Graph() core.Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.ExportGraph()
}

// Positions returns the Earth-fixed position of every node.
func (s *ConstellationState) Positions() map[core.NodeID]core.NodeProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Positions()
}

// Geodetics returns the geodetic position of every node.
func (s *ConstellationState) Geodetics() map[core.NodeID]core.NodeProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Geodetics()
}

func (s *ConstellationState) NodeCount() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.NodeCount()
}

func (s *ConstellationState) Epoch() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Epoch()
}

func (s *ConstellationState) Distance(a, b core.NodeID) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Distance(a, b)
}

// LinkCounts returns the current number of ISLs and GSLs.
func (s *ConstellationState) LinkCounts() (isl, gsl int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.LinkCount(core.LinkISL), s.c.LinkCount(core.LinkGSL)
}

// ContactSnapshot returns the epoch and the contact history as of the same
// committed mesh.
func (s *ConstellationState) ContactSnapshot() (time.Time, []*LinkMetrics) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.c.Epoch(), s.contacts.ListAll()
}

// Contacts exposes the link history tracker.
func (s *ConstellationState) Contacts() *TelemetryState {
	return s.contacts
}

// updateMetricsLocked pushes current counts to the recorder. Callers hold mu.
func (s *ConstellationState) updateMetricsLocked() {
	if s.metrics == nil {
		return
	}
	sats := int(s.c.Config().Satellites)
	s.metrics.SetMeshCounts(
		sats,
		int(s.c.NodeCount())-sats,
		s.c.LinkCount(core.LinkISL),
		s.c.LinkCount(core.LinkGSL),
	)
}
