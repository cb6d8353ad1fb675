package core

import (
	"context"
	"time"
)

// SimulationEngine drives a Constellation forward in fixed steps and
// notifies listeners after each committed step.
type SimulationEngine struct {
	Constellation *Constellation
	tickListeners []func(tick int, res StepResult)
}

func NewSimulationEngine(c *Constellation) *SimulationEngine {
	return &SimulationEngine{
		Constellation: c,
	}
}

// RegisterTickListener adds fn to the listeners called after every step.
func (se *SimulationEngine) RegisterTickListener(fn func(tick int, res StepResult)) {
	se.tickListeners = append(se.tickListeners, fn)
}

// Run performs ticks steps of size step. It stops at the first failed step
// or when ctx is done, returning the number of steps completed.
func (se *SimulationEngine) Run(ctx context.Context, ticks int, step time.Duration) (int, error) {
	for tick := 0; tick < ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return tick, err
		}
		res, err := se.Constellation.Step(ctx, step)
		if err != nil {
			return tick, err
		}
		for _, fn := range se.tickListeners {
			fn(tick, res)
		}
	}
	return ticks, nil
}
