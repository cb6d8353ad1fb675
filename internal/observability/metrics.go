package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/walker-mesh/core"
)

// Step outcomes used as the result label of walkermesh_steps_total.
const (
	StepResultOK          = "ok"
	StepResultPropagation = "propagation_error"
	StepResultInvalid     = "invalid"
	StepResultCanceled    = "canceled"
)

// MeshCollector bundles Prometheus metrics for the mesh engine and its gRPC
// surface and provides helpers to wire them into servers and HTTP handlers.
type MeshCollector struct {
	gatherer prometheus.Gatherer

	RPCRequests  *prometheus.CounterVec
	RPCDurations *prometheus.HistogramVec

	StepDuration        prometheus.Histogram
	Steps               *prometheus.CounterVec
	PropagationFailures prometheus.Counter
	Links               *prometheus.GaugeVec
	Nodes               *prometheus.GaugeVec
}

// NewMeshCollector registers mesh Prometheus metrics against reg, defaulting
// to the global registry when nil. Collectors already registered under the
// same name are reused, so building a second collector on one registry is
// safe.
func NewMeshCollector(reg prometheus.Registerer) (*MeshCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &MeshCollector{gatherer: prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}

	r := registrar{reg: reg}
	c.RPCRequests = register(&r, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "walkermesh_rpc_requests_total",
		Help: "MeshService RPCs handled, labeled by service, method and gRPC status code.",
	}, []string{"service", "method", "code"}))
	c.RPCDurations = register(&r, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "walkermesh_rpc_duration_seconds",
		Help:    "MeshService RPC latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"service", "method"}))
	c.StepDuration = register(&r, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "walkermesh_step_duration_seconds",
		Help:    "Wall-clock duration of constellation steps, propagation and mesh rebuild included.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}))
	c.Steps = register(&r, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "walkermesh_steps_total",
		Help: "Constellation steps attempted, labeled by result.",
	}, []string{"result"}))
	c.PropagationFailures = register(&r, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "walkermesh_propagation_failures_total",
		Help: "Steps aborted because the orbit model failed to propagate a satellite.",
	}))
	c.Links = register(&r, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "walkermesh_links",
		Help: "Current number of links in the mesh, labeled by link type.",
	}, []string{"type"}))
	c.Nodes = register(&r, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "walkermesh_nodes",
		Help: "Current number of nodes, labeled by kind.",
	}, []string{"kind"}))

	if r.err != nil {
		return nil, r.err
	}
	return c, nil
}

// UnaryServerInterceptor counts unary RPCs and observes their latency,
// labeled by the short service name, method and status code.
func (c *MeshCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if c == nil || info == nil {
			return resp, err
		}

		service, method := SplitMethod(info.FullMethod)
		if c.RPCRequests != nil {
			c.RPCRequests.WithLabelValues(service, method, status.Code(err).String()).Inc()
		}
		if c.RPCDurations != nil {
			c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())
		}
		return resp, err
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *MeshCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Gatherer(), promhttp.HandlerOpts{})
}

// Gatherer returns the gatherer paired with the registerer the collector was
// built on, or the default gatherer.
func (c *MeshCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// ObserveStep records one step attempt. It satisfies the state package's
// metrics recorder.
func (c *MeshCollector) ObserveStep(d time.Duration, err error) {
	if c == nil {
		return
	}
	result := StepResult(err)
	if c.Steps != nil {
		c.Steps.WithLabelValues(result).Inc()
	}
	if result == StepResultPropagation && c.PropagationFailures != nil {
		c.PropagationFailures.Inc()
	}
	if c.StepDuration != nil {
		c.StepDuration.Observe(d.Seconds())
	}
}

// SetMeshCounts updates the node and link gauges.
func (c *MeshCollector) SetMeshCounts(satellites, groundStations, isl, gsl int) {
	if c == nil {
		return
	}
	if c.Nodes != nil {
		c.Nodes.WithLabelValues(core.KindSatellite.String()).Set(float64(satellites))
		c.Nodes.WithLabelValues(core.KindGroundStation.String()).Set(float64(groundStations))
	}
	if c.Links != nil {
		c.Links.WithLabelValues(core.LinkISL.String()).Set(float64(isl))
		c.Links.WithLabelValues(core.LinkGSL.String()).Set(float64(gsl))
	}
}

// StepResult classifies a step error into a steps_total label value.
func StepResult(err error) string {
	switch {
	case err == nil:
		return StepResultOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StepResultCanceled
	case errors.Is(err, core.ErrPropagation):
		return StepResultPropagation
	default:
		return StepResultInvalid
	}
}

// SplitMethod splits "/pkg.Service/Method" into ("Service", "Method").
// Unparseable input yields "unknown" for the missing parts.
func SplitMethod(fullMethod string) (string, string) {
	path := strings.TrimPrefix(fullMethod, "/")
	slash := strings.LastIndex(path, "/")
	if slash < 0 {
		return "unknown", "unknown"
	}
	service, method := path[:slash], path[slash+1:]
	if i := strings.LastIndex(service, "/"); i >= 0 {
		service = service[i+1:]
	}
	if i := strings.LastIndex(service, "."); i >= 0 {
		service = service[i+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

// registrar registers collectors in sequence and keeps the first error.
type registrar struct {
	reg prometheus.Registerer
	err error
}

// register adds c to r's registerer. If a collector with the same
// descriptor is already registered and has the same concrete type, that
// collector is returned instead.
func register[C prometheus.Collector](r *registrar, c C) C {
	if r.err != nil {
		return c
	}
	err := r.reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
		err = fmt.Errorf("collector %s already registered with incompatible type", describe(c))
	}
	r.err = err
	return c
}

func describe(c prometheus.Collector) string {
	ch := make(chan *prometheus.Desc, 1)
	go func() {
		c.Describe(ch)
		close(ch)
	}()
	var name string
	for d := range ch {
		if name == "" {
			name = d.String()
		}
	}
	return name
}
