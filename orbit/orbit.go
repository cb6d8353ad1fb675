// Package orbit owns orbital state: it builds orbits from Keplerian
// elements, advances them in time and converts inertial state into
// Earth-fixed and geodetic coordinates.
package orbit

import (
	"errors"
	"math"
	"time"
)

// ErrDiverged is returned when a model cannot produce a finite state for the
// requested epoch.
var ErrDiverged = errors.New("orbit propagation diverged")

// ErrInvalidElements is returned for element sets a model cannot represent.
var ErrInvalidElements = errors.New("invalid orbital elements")

// Vector is a Cartesian vector in kilometres (or km/s for velocities).
type Vector struct {
	X, Y, Z float64
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Elements is the input to orbit construction. Angles are radians.
type Elements struct {
	AltitudeKm   float64
	Eccentricity float64
	Inclination  float64
	RAAN         float64
	ArgPerigee   float64
	// ArgLatitude is the angle from the ascending node to the satellite,
	// measured in the orbital plane.
	ArgLatitude float64
	Epoch       time.Time
}

// Orbit is the handle returned by a Model. Position and Velocity are
// inertial and valid at Epoch. The unexported state belongs to whichever
// model built the orbit; an Orbit must be propagated by that same model.
type Orbit struct {
	Epoch    time.Time
	Position Vector
	Velocity Vector

	kepler *keplerState
	tle    *tleState
}

// Model constructs and propagates orbits. Propagate must not mutate its
// argument; it returns the advanced orbit.
type Model interface {
	NewOrbit(el Elements) (Orbit, error)
	Propagate(o Orbit, d time.Duration) (Orbit, error)
}

func finite(v Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func wrapTwoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}

// trueToMean converts a true anomaly to a mean anomaly for an elliptic orbit.
func trueToMean(nu, e float64) float64 {
	ecc := 2 * math.Atan2(math.Sqrt(1-e)*math.Sin(nu/2), math.Sqrt(1+e)*math.Cos(nu/2))
	return wrapTwoPi(ecc - e*math.Sin(ecc))
}
