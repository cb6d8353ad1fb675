package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/signalsfoundry/walker-mesh/internal/config"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/internal/nbi"
)

func smallConfig() config.Config {
	cfg := config.Default()
	cfg.Constellation.Satellites = 12
	cfg.Constellation.Planes = 3
	cfg.Server.MetricsAddr = ""
	cfg.Simulation.Step = 20 * time.Millisecond
	cfg.Simulation.Duration = 0
	cfg.Simulation.Mode = config.ModeRealTime
	cfg.GroundStations = []config.GroundStation{{Name: "equator", LatitudeDeg: 0, LongitudeDeg: 0}}
	return cfg
}

func TestMeshServerStartupSmoke(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	log := logging.New(logging.Config{Level: "warn", Format: "text"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, smallConfig(), log, lis, prometheus.NewRegistry())
	}()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()

	health, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: nbi.MeshServiceName})
	if err != nil {
		t.Fatalf("health Check: %v", err)
	}
	if health.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("health status = %v, want SERVING", health.GetStatus())
	}

	n, err := nbi.NewMeshServiceClient(conn).NodeCount(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("NodeCount: %v", err)
	}
	if n.GetValue() != 13 {
		t.Fatalf("NodeCount = %d, want 13", n.GetValue())
	}

	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}
}
