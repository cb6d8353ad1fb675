package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/walker-mesh/internal/config"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/internal/nbi"
	"github.com/signalsfoundry/walker-mesh/internal/observability"
	sim "github.com/signalsfoundry/walker-mesh/internal/sim/state"
	"github.com/signalsfoundry/walker-mesh/timectrl"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML run configuration (defaults are used when empty)")
	grpcAddr := flag.String("grpc-addr", "", "TCP address the MeshService listens on (overrides server.grpc_addr)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (overrides server.metrics_addr)")
	mode := flag.String("mode", "", "realtime or accelerated (overrides simulation.mode)")
	step := flag.Duration("step", 0, "simulation step (overrides simulation.step)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("path", *configPath), logging.Err(err))
		os.Exit(1)
	}
	if *grpcAddr != "" {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if *metricsAddr != "" {
		cfg.Server.MetricsAddr = *metricsAddr
	}
	if *mode != "" {
		cfg.Simulation.Mode = *mode
	}
	if *step > 0 {
		cfg.Simulation.Step = *step
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, "invalid configuration", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis, prometheus.NewRegistry()); err != nil {
		log.Error(ctx, "mesh server exited", logging.Err(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// run serves MeshService on lis and ticks the constellation until ctx is
// done. It returns nil on a clean shutdown.
func run(ctx context.Context, cfg config.Config, log logging.Logger, lis net.Listener, reg *prometheus.Registry) error {
	collector, err := observability.NewMeshCollector(reg)
	if err != nil {
		return err
	}

	cons, err := cfg.NewConstellation(log)
	if err != nil {
		return err
	}
	state := sim.NewConstellationState(cons, log, sim.WithMetricsRecorder(collector))

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			nbi.RequestIDUnaryServerInterceptor(log),
			nbi.TracingUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
			nbi.AccessLogUnaryServerInterceptor(log),
		),
	)
	nbi.RegisterMeshServiceServer(server, nbi.NewMeshService(state, log))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(server, healthSrv)
	healthSrv.SetServingStatus(nbi.MeshServiceName, healthpb.HealthCheckResponse_SERVING)

	metricsSrv := serveMetrics(cfg.Server.MetricsAddr, collector, log)

	serveErr := make(chan error, 1)
	log.Info(ctx, "starting MeshService gRPC server",
		logging.String("addr", lis.Addr().String()),
		logging.Int("satellites", int(cons.Config().Satellites)),
		logging.Int("ground_stations", len(cfg.GroundStations)),
	)
	go func() {
		serveErr <- server.Serve(lis)
	}()

	simCtx, cancelSim := context.WithCancel(ctx)
	simDone := make(chan struct{})
	go func() {
		defer close(simDone)
		if err := runSimLoop(simCtx, cfg, state, log); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(simCtx, "simulation loop stopped", logging.Err(err))
		}
	}()

	var result error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		result = err
	}

	log.Info(context.Background(), "shutting down MeshService")
	cancelSim()
	<-simDone
	healthSrv.Shutdown()
	server.GracefulStop()

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return result
}

// runSimLoop steps the shared state once per tick of a TimeController
// starting at the constellation epoch.
func runSimLoop(ctx context.Context, cfg config.Config, state *sim.ConstellationState, log logging.Logger) error {
	mode, err := timectrl.ParseMode(cfg.Simulation.Mode)
	if err != nil {
		return err
	}
	tc := timectrl.NewTimeController(state.Epoch(), cfg.Simulation.Step, mode)
	tc.AddListener(func(ctx context.Context, _ time.Time) error {
		_, err := state.Step(ctx, tc.Tick)
		return err
	})

	log.Info(ctx, "simulation loop started",
		logging.String("mode", mode.String()),
		logging.Duration("step", tc.Tick),
		logging.Duration("duration", cfg.Simulation.Duration),
	)
	if err := tc.Run(ctx, cfg.Simulation.Duration); err != nil {
		return err
	}
	log.Info(ctx, "simulation loop finished",
		logging.Int("ticks", tc.Ticks()),
		logging.Time("epoch", state.Epoch()),
	)
	return nil
}

func serveMetrics(addr string, collector *observability.MeshCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
