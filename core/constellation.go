package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/walker-mesh/internal/logging"
	"github.com/signalsfoundry/walker-mesh/orbit"
)

// Constellation owns a Walker shell, the ground stations added to it and
// the link mesh between them.
//
// A Constellation is not safe for concurrent use; callers serialise access
// (see internal/sim/state). Step fans work out internally.
type Constellation struct {
	cfg   ShellConfig
	model orbit.Model
	log   logging.Logger

	workers int

	epoch          time.Time
	satellites     []Satellite
	groundStations []GroundStation
	links          *LinkMesh
	nextFreeID     NodeID
}

// Option configures a Constellation.
type Option func(*Constellation)

// WithLogger sets the logger used for step and mutation events.
func WithLogger(l logging.Logger) Option {
	return func(c *Constellation) {
		if l != nil {
			c.log = l
		}
	}
}

// WithWorkers bounds the number of satellites propagated concurrently
// during Step. Values below 1 fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *Constellation) {
		c.workers = n
	}
}

// New places the shell described by cfg using model and builds the initial
// inter-satellite links. The ground-station set starts empty.
func New(cfg ShellConfig, model orbit.Model, opts ...Option) (*Constellation, error) {
	if model == nil {
		return nil, &ConfigError{Param: "model", Value: nil, Reason: "orbit model is required"}
	}
	placements, err := WalkerPlacements(cfg)
	if err != nil {
		return nil, err
	}

	c := &Constellation{
		cfg:        cfg,
		model:      model,
		log:        logging.Noop(),
		epoch:      cfg.Epoch,
		satellites: make([]Satellite, 0, len(placements)),
		links:      NewLinkMesh(),
		nextFreeID: NodeID(cfg.Satellites),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}

	incl := cfg.InclinationDeg * deg2rad
	for _, pl := range placements {
		o, err := model.NewOrbit(orbit.Elements{
			AltitudeKm:  cfg.AltitudeKm,
			Inclination: incl,
			RAAN:        pl.RAAN,
			ArgLatitude: pl.AOL,
			Epoch:       cfg.Epoch,
		})
		if err != nil {
			return nil, &ConfigError{
				Param:  "satellite",
				Value:  pl.ID,
				Reason: fmt.Sprintf("orbit model rejected elements: %v", err),
			}
		}
		c.satellites = append(c.satellites, Satellite{
			id:    pl.ID,
			plane: pl.Plane,
			index: pl.Index,
			orbit: o,
		})
	}

	isl := c.recomputeISL(c.snapshot())
	c.log.Info(context.Background(), "constellation placed",
		logging.String("pattern", cfg.Pattern.String()),
		logging.Int("satellites", int(cfg.Satellites)),
		logging.Int("planes", int(cfg.Planes)),
		logging.Int("phasing", int(cfg.Phasing)),
		logging.Int("isl_links", isl),
	)
	return c, nil
}

const deg2rad = math.Pi / 180

// Config returns the shell configuration the constellation was built from.
func (c *Constellation) Config() ShellConfig { return c.cfg }

// Epoch returns the time every node is currently propagated to.
func (c *Constellation) Epoch() time.Time { return c.epoch }

// NodeCount returns S + G.
func (c *Constellation) NodeCount() uint32 { return uint32(c.nextFreeID) }

// Satellites returns the satellites in ID order.
func (c *Constellation) Satellites() []Satellite {
	out := make([]Satellite, len(c.satellites))
	copy(out, c.satellites)
	return out
}

// GroundStations returns the ground stations in ID order.
func (c *Constellation) GroundStations() []GroundStation {
	out := make([]GroundStation, len(c.groundStations))
	copy(out, c.groundStations)
	return out
}

// Satellite looks up a satellite by ID.
func (c *Constellation) Satellite(id NodeID) (Satellite, error) {
	ref, err := c.resolve(id)
	if err != nil {
		return Satellite{}, err
	}
	if ref.kind != KindSatellite {
		return Satellite{}, fmt.Errorf("node %d is a ground station: %w", id, ErrUnknownNode)
	}
	return c.satellites[ref.index], nil
}

// GroundStation looks up a ground station by ID.
func (c *Constellation) GroundStation(id NodeID) (GroundStation, error) {
	ref, err := c.resolve(id)
	if err != nil {
		return GroundStation{}, err
	}
	if ref.kind != KindGroundStation {
		return GroundStation{}, fmt.Errorf("node %d is a satellite: %w", id, ErrUnknownNode)
	}
	return c.groundStations[ref.index], nil
}

// Kind reports whether id names a satellite or a ground station.
func (c *Constellation) Kind(id NodeID) (NodeKind, error) {
	ref, err := c.resolve(id)
	if err != nil {
		return 0, err
	}
	return ref.kind, nil
}

// Neighbors returns the grid neighbours of satellite id. Whether the right
// neighbour is actually linked depends on the pattern and current geometry.
func (c *Constellation) Neighbors(id NodeID) (Neighbors, error) {
	sat, err := c.Satellite(id)
	if err != nil {
		return Neighbors{}, err
	}
	return sat.Neighbors(c.cfg.SatellitesPerPlane(), c.cfg.Planes), nil
}

// Links returns every current link, ISLs and GSLs, in mesh order.
func (c *Constellation) Links() []NetworkLink { return c.links.Links() }

// LinksOfType returns the current links of one type.
func (c *Constellation) LinksOfType(t LinkType) []NetworkLink { return c.links.OfType(t) }

// LinkCount returns the number of current links of one type.
func (c *Constellation) LinkCount(t LinkType) int { return c.links.Count(t) }

// Linked reports whether a and b currently share a link.
func (c *Constellation) Linked(a, b NodeID) bool { return c.links.Has(a, b) }

// Distance returns the Euclidean distance in kilometres between two nodes
// at the current epoch.
func (c *Constellation) Distance(a, b NodeID) (float64, error) {
	ra, err := c.resolve(a)
	if err != nil {
		return 0, err
	}
	rb, err := c.resolve(b)
	if err != nil {
		return 0, err
	}
	return c.position(ra).DistanceTo(c.position(rb)), nil
}

// Elevation returns the elevation in degrees of satellite sat as seen from
// ground station gs.
func (c *Constellation) Elevation(gs, sat NodeID) (float64, error) {
	station, err := c.GroundStation(gs)
	if err != nil {
		return 0, err
	}
	s, err := c.Satellite(sat)
	if err != nil {
		return 0, err
	}
	return station.Elevation(s), nil
}

// AddGroundStation registers a station at the given geodetic site and
// returns its ID, which is always NodeCount() before the call. Ground links
// are rebuilt so the new station is connected immediately.
func (c *Constellation) AddGroundStation(name string, latDeg, lonDeg, altKm float64, opts ...GroundStationOption) (NodeID, error) {
	site := Geodetic{LatDeg: latDeg, LonDeg: lonDeg, AltKm: altKm}
	if err := validateSite(name, site); err != nil {
		return 0, err
	}

	gs := GroundStation{
		name:            name,
		site:            site,
		position:        site.ECEF(),
		minElevationDeg: c.cfg.MinElevationDeg,
		epoch:           c.epoch,
	}
	for _, opt := range opts {
		opt(&gs)
	}
	if !(gs.minElevationDeg >= -90 && gs.minElevationDeg <= 90) {
		return 0, &ConfigError{Param: "min_elevation_deg", Value: gs.minElevationDeg, Reason: "must be within [-90, 90]"}
	}

	gs.id = c.nextID()
	c.groundStations = append(c.groundStations, gs)
	gsl := c.recomputeGSL(c.snapshot())

	c.log.Debug(context.Background(), "ground station added",
		logging.Int("id", int(gs.id)),
		logging.String("name", name),
		logging.Int("gsl_links", gsl),
	)
	return gs.id, nil
}

// StepResult summarises a completed step.
type StepResult struct {
	Epoch     time.Time
	NodeCount uint32
	ISLLinks  int
	GSLLinks  int
}

// Step advances every node by d and rebuilds the mesh. Satellites are
// propagated concurrently into a staging buffer; nothing is committed
// unless all of them succeed, so on error the epoch, positions and links
// are exactly as before the call.
//
// After commit, ISLs are recomputed before GSLs.
func (c *Constellation) Step(ctx context.Context, d time.Duration) (StepResult, error) {
	if d < 0 {
		return StepResult{}, &ConfigError{Param: "duration", Value: d, Reason: "must not be negative"}
	}

	staged := make([]orbit.Orbit, len(c.satellites))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := range c.satellites {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sat := &c.satellites[i]
			o, err := c.model.Propagate(sat.orbit, d)
			if err != nil {
				return &PropagationError{Epoch: c.epoch, Duration: d, NodeID: sat.id, Err: err}
			}
			staged[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var perr *PropagationError
		if errors.As(err, &perr) {
			c.log.Warn(ctx, "step aborted",
				logging.Int("node_id", int(perr.NodeID)),
				logging.Duration("duration", d),
				logging.Err(perr.Err),
			)
		}
		return StepResult{}, err
	}

	for i := range c.satellites {
		c.satellites[i].orbit = staged[i]
	}
	c.epoch = c.epoch.Add(d)
	for i := range c.groundStations {
		c.groundStations[i].epoch = c.epoch
	}

	snap := c.snapshot()
	res := StepResult{
		Epoch:     c.epoch,
		NodeCount: c.NodeCount(),
		ISLLinks:  c.recomputeISL(snap),
		GSLLinks:  c.recomputeGSL(snap),
	}
	c.log.Debug(ctx, "step committed",
		logging.Time("epoch", res.Epoch),
		logging.Int("isl_links", res.ISLLinks),
		logging.Int("gsl_links", res.GSLLinks),
	)
	return res, nil
}
