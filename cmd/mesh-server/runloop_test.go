package main

import (
	"context"
	"testing"
	"time"

	"github.com/signalsfoundry/walker-mesh/internal/config"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/internal/sim/state"
)

func TestRunSimLoopAcceleratedAdvancesEpoch(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.Mode = config.ModeAccelerated
	cfg.Simulation.Step = 30 * time.Second
	cfg.Simulation.Duration = 5 * time.Minute

	cons, err := cfg.NewConstellation(nil)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	st := state.NewConstellationState(cons, logging.Noop())
	start := st.Epoch()

	if err := runSimLoop(context.Background(), cfg, st, logging.Noop()); err != nil {
		t.Fatalf("runSimLoop: %v", err)
	}
	if got, want := st.Epoch(), start.Add(5*time.Minute); !got.Equal(want) {
		t.Fatalf("epoch = %v, want %v", got, want)
	}
	if isl, _ := st.LinkCounts(); isl == 0 {
		t.Fatalf("expected inter-satellite links after stepping")
	}
}

func TestRunSimLoopStopsOnCancel(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.Step = 10 * time.Millisecond

	cons, err := cfg.NewConstellation(nil)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}
	st := state.NewConstellationState(cons, logging.Noop())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = runSimLoop(ctx, cfg, st, logging.Noop())
	if err == nil {
		t.Fatalf("expected context error from unbounded loop")
	}
	if !st.Epoch().After(cons.Config().Epoch) {
		t.Fatalf("expected at least one real-time tick before cancel")
	}
}
