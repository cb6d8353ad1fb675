package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/walker-mesh/core"
	"github.com/signalsfoundry/walker-mesh/internal/config"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
)

type options struct {
	configPath   string
	scenarioPath string
	outPath      string
	duration     time.Duration
	step         time.Duration
	propagator   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML run configuration (defaults are used when empty)")
	flag.StringVar(&opts.scenarioPath, "ground-stations", "", "Optional JSON file of additional ground stations")
	flag.StringVar(&opts.outPath, "out", "", "Write the final graph JSON here instead of stdout")
	flag.DurationVar(&opts.duration, "duration", 0, "Total simulated time (overrides simulation.duration)")
	flag.DurationVar(&opts.step, "step", 0, "Step size (overrides simulation.step)")
	flag.StringVar(&opts.propagator, "propagator", "", "twobody or sgp4 (overrides propagator)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := io.Writer(os.Stdout)
	if opts.outPath != "" {
		f, err := os.Create(opts.outPath)
		if err != nil {
			log.Error(ctx, "failed to create output", logging.String("path", opts.outPath), logging.Err(err))
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(ctx, opts, log, out); err != nil {
		log.Error(ctx, "simulation failed", logging.Err(err))
		os.Exit(1)
	}
}

// run builds the configured constellation, steps it in accelerated mode for
// the configured duration and writes the final node-link graph to out.
func run(ctx context.Context, opts options, log logging.Logger, out io.Writer) error {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return err
		}
	}
	if opts.duration > 0 {
		cfg.Simulation.Duration = opts.duration
	}
	if opts.step > 0 {
		cfg.Simulation.Step = opts.step
	}
	if opts.propagator != "" {
		cfg.Propagator = opts.propagator
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cons, err := cfg.NewConstellation(log)
	if err != nil {
		return err
	}
	if opts.scenarioPath != "" {
		if err := loadGroundStations(cons, opts.scenarioPath, log); err != nil {
			return err
		}
	}

	ticks := 0
	if cfg.Simulation.Step > 0 {
		ticks = int(cfg.Simulation.Duration / cfg.Simulation.Step)
	}

	engine := core.NewSimulationEngine(cons)
	engine.RegisterTickListener(func(tick int, res core.StepResult) {
		log.Debug(ctx, "tick",
			logging.Int("tick", tick),
			logging.Time("epoch", res.Epoch),
			logging.Int("isl_links", res.ISLLinks),
			logging.Int("gsl_links", res.GSLLinks),
		)
	})

	log.Info(ctx, "starting simulation",
		logging.String("pattern", cons.Config().Pattern.String()),
		logging.Int("nodes", int(cons.NodeCount())),
		logging.Duration("step", cfg.Simulation.Step),
		logging.Int("ticks", ticks),
	)
	done, err := engine.Run(ctx, ticks, cfg.Simulation.Step)
	if err != nil {
		return fmt.Errorf("after %d of %d ticks: %w", done, ticks, err)
	}
	log.Info(ctx, "simulation complete",
		logging.Time("epoch", cons.Epoch()),
		logging.Int("isl_links", len(cons.LinksOfType(core.LinkISL))),
		logging.Int("gsl_links", len(cons.LinksOfType(core.LinkGSL))),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(cons.ExportGraph())
}

func loadGroundStations(cons *core.Constellation, path string, log logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open ground stations %q: %w", path, err)
	}
	defer f.Close()

	sc, err := core.LoadGroundStations(cons, f)
	if err != nil {
		return fmt.Errorf("load ground stations %q: %w", path, err)
	}
	log.Info(context.Background(), "loaded ground stations",
		logging.String("path", path),
		logging.Int("count", len(sc.IDs)),
	)
	return nil
}
