package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig marks configuration rejected at construction time.
	ErrInvalidConfig = errors.New("invalid constellation configuration")
	// ErrUnknownNode marks a NodeID that does not name a current node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrPropagation marks a simulation step the orbit model could not complete.
	ErrPropagation = errors.New("propagation failed")
)

// ConfigError reports the parameter that failed validation.
type ConfigError struct {
	Param  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%v: %s", ErrInvalidConfig, e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// LookupError reports a NodeID outside the current ID space.
type LookupError struct {
	ID        NodeID
	NodeCount uint32
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%v: id %d (node count %d)", ErrUnknownNode, e.ID, e.NodeCount)
}

func (e *LookupError) Unwrap() error { return ErrUnknownNode }

// PropagationError reports a failed step. Epoch is the epoch the step
// started from, which is also the epoch the constellation remains at.
type PropagationError struct {
	Epoch    time.Time
	Duration time.Duration
	NodeID   NodeID
	Err      error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("%v: node %d stepping %s from %s: %v",
		ErrPropagation, e.NodeID, e.Duration, e.Epoch.UTC().Format(time.RFC3339Nano), e.Err)
}

func (e *PropagationError) Unwrap() []error { return []error{ErrPropagation, e.Err} }
