// Package config loads the YAML run configuration shared by the simulator
// and the mesh server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/signalsfoundry/walker-mesh/core"
	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/orbit"
)

// Propagator names accepted in the configuration.
const (
	PropagatorTwoBody = "twobody"
	PropagatorSGP4    = "sgp4"
)

// Simulation modes, mirrored by timectrl.
const (
	ModeRealTime    = "realtime"
	ModeAccelerated = "accelerated"
)

type Config struct {
	Constellation  Constellation   `yaml:"constellation"`
	Propagator     string          `yaml:"propagator"`
	Workers        int             `yaml:"workers"`
	Simulation     Simulation      `yaml:"simulation"`
	GroundStations []GroundStation `yaml:"ground_stations"`
	Server         Server          `yaml:"server"`
}

type Constellation struct {
	Pattern         string  `yaml:"pattern"`
	Satellites      uint32  `yaml:"satellites"`
	Planes          uint32  `yaml:"planes"`
	Phasing         uint32  `yaml:"phasing"`
	AltitudeKm      float64 `yaml:"altitude_km"`
	InclinationDeg  float64 `yaml:"inclination_deg"`
	MinElevationDeg float64 `yaml:"min_elevation_deg"`
	Epoch           string  `yaml:"epoch"` // RFC 3339
}

type Simulation struct {
	Step     time.Duration `yaml:"step"`
	Duration time.Duration `yaml:"duration"`
	Mode     string        `yaml:"mode"`
}

type GroundStation struct {
	Name            string   `yaml:"name"`
	LatitudeDeg     float64  `yaml:"lat"`
	LongitudeDeg    float64  `yaml:"lon"`
	AltitudeKm      float64  `yaml:"alt_km"`
	MinElevationDeg *float64 `yaml:"min_elevation_deg"`
}

type Server struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a small Delta shell that runs without a file.
func Default() Config {
	return Config{
		Constellation: Constellation{
			Pattern:         "delta",
			Satellites:      66,
			Planes:          6,
			Phasing:         1,
			AltitudeKm:      550,
			InclinationDeg:  53,
			MinElevationDeg: 10,
			Epoch:           "2024-01-01T00:00:00Z",
		},
		Propagator: PropagatorTwoBody,
		Simulation: Simulation{
			Step:     30 * time.Second,
			Duration: 10 * time.Minute,
			Mode:     ModeAccelerated,
		},
		Server: Server{
			GRPCAddr:    ":50051",
			MetricsAddr: ":9090",
		},
	}
}

// Load reads path, fills unset fields from Default and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data the same way Load does.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Constellation.Pattern == "" {
		c.Constellation.Pattern = def.Constellation.Pattern
	}
	if c.Constellation.Epoch == "" {
		c.Constellation.Epoch = def.Constellation.Epoch
	}
	if c.Propagator == "" {
		c.Propagator = def.Propagator
	}
	if c.Simulation.Step == 0 {
		c.Simulation.Step = def.Simulation.Step
	}
	if c.Simulation.Mode == "" {
		c.Simulation.Mode = def.Simulation.Mode
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = def.Server.GRPCAddr
	}
	if c.Server.MetricsAddr == "" {
		c.Server.MetricsAddr = def.Server.MetricsAddr
	}
}

// Validate checks the fields the engine does not validate itself and then
// the shell through core.ShellConfig.Validate.
func (c Config) Validate() error {
	switch strings.ToLower(c.Propagator) {
	case PropagatorTwoBody, PropagatorSGP4:
	default:
		return &core.ConfigError{Param: "propagator", Value: c.Propagator, Reason: `must be "twobody" or "sgp4"`}
	}
	switch strings.ToLower(c.Simulation.Mode) {
	case ModeRealTime, ModeAccelerated:
	default:
		return &core.ConfigError{Param: "simulation.mode", Value: c.Simulation.Mode, Reason: `must be "realtime" or "accelerated"`}
	}
	if c.Simulation.Step < 0 {
		return &core.ConfigError{Param: "simulation.step", Value: c.Simulation.Step, Reason: "must not be negative"}
	}
	if c.Simulation.Duration < 0 {
		return &core.ConfigError{Param: "simulation.duration", Value: c.Simulation.Duration, Reason: "must not be negative"}
	}
	if c.Workers < 0 {
		return &core.ConfigError{Param: "workers", Value: c.Workers, Reason: "must not be negative"}
	}

	shell, err := c.ShellConfig()
	if err != nil {
		return err
	}
	return shell.Validate()
}

// ShellConfig converts the constellation section to a core.ShellConfig.
func (c Config) ShellConfig() (core.ShellConfig, error) {
	pattern, err := core.ParsePattern(c.Constellation.Pattern)
	if err != nil {
		return core.ShellConfig{}, err
	}
	epoch, err := time.Parse(time.RFC3339Nano, c.Constellation.Epoch)
	if err != nil {
		return core.ShellConfig{}, &core.ConfigError{Param: "epoch", Value: c.Constellation.Epoch, Reason: "must be RFC 3339"}
	}
	return core.ShellConfig{
		Pattern:         pattern,
		Satellites:      c.Constellation.Satellites,
		Planes:          c.Constellation.Planes,
		Phasing:         c.Constellation.Phasing,
		AltitudeKm:      c.Constellation.AltitudeKm,
		InclinationDeg:  c.Constellation.InclinationDeg,
		MinElevationDeg: c.Constellation.MinElevationDeg,
		Epoch:           epoch.UTC(),
	}, nil
}

// OrbitModel builds the configured propagator over the standard Earth frame.
func (c Config) OrbitModel() (orbit.Model, error) {
	frame := orbit.EarthFrame()
	switch strings.ToLower(c.Propagator) {
	case PropagatorTwoBody:
		return orbit.NewTwoBody(frame), nil
	case PropagatorSGP4:
		return orbit.NewSGP4(frame), nil
	default:
		return nil, &core.ConfigError{Param: "propagator", Value: c.Propagator, Reason: "unknown propagator"}
	}
}

// AddGroundStations registers the configured stations on c in file order.
func (c Config) AddGroundStations(cons *core.Constellation) ([]core.NodeID, error) {
	ids := make([]core.NodeID, 0, len(c.GroundStations))
	for _, gs := range c.GroundStations {
		var opts []core.GroundStationOption
		if gs.MinElevationDeg != nil {
			opts = append(opts, core.WithMinElevation(*gs.MinElevationDeg))
		}
		id, err := cons.AddGroundStation(gs.Name, gs.LatitudeDeg, gs.LongitudeDeg, gs.AltitudeKm, opts...)
		if err != nil {
			return ids, fmt.Errorf("ground station %q: %w", gs.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NewConstellation builds the configured shell with its propagator and
// worker count, then adds the configured ground stations.
func (c Config) NewConstellation(log logging.Logger) (*core.Constellation, error) {
	shell, err := c.ShellConfig()
	if err != nil {
		return nil, err
	}
	model, err := c.OrbitModel()
	if err != nil {
		return nil, err
	}
	opts := []core.Option{core.WithLogger(log)}
	if c.Workers > 0 {
		opts = append(opts, core.WithWorkers(c.Workers))
	}
	cons, err := core.New(shell, model, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddGroundStations(cons); err != nil {
		return nil, err
	}
	return cons, nil
}
