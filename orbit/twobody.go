package orbit

import (
	"fmt"
	"math"
	"time"
)

const (
	keplerMaxIterations = 50
	keplerTolerance     = 1e-12
)

type keplerState struct {
	semiMajorKm float64
	ecc         float64
	incl        float64
	raan        float64
	argp        float64
	meanAnomaly float64
}

// TwoBody propagates orbits analytically under an unperturbed point-mass
// field. It holds no per-orbit state and is safe for concurrent use.
type TwoBody struct {
	frame Frame
}

// NewTwoBody returns a two-body model bound to frame.
func NewTwoBody(frame Frame) *TwoBody {
	return &TwoBody{frame: frame}
}

// Frame returns the frame the model was built with.
func (m *TwoBody) Frame() Frame { return m.frame }

// NewOrbit builds an orbit from el and evaluates its state at el.Epoch.
func (m *TwoBody) NewOrbit(el Elements) (Orbit, error) {
	if el.AltitudeKm <= 0 {
		return Orbit{}, fmt.Errorf("%w: altitude %.3f km", ErrInvalidElements, el.AltitudeKm)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return Orbit{}, fmt.Errorf("%w: eccentricity %v outside [0,1)", ErrInvalidElements, el.Eccentricity)
	}
	if m.frame.MuKm3S2 <= 0 {
		return Orbit{}, fmt.Errorf("%w: frame %q has no gravitational parameter", ErrInvalidElements, m.frame.Name)
	}

	ks := &keplerState{
		semiMajorKm: m.frame.EquatorialRadiusKm + el.AltitudeKm,
		ecc:         el.Eccentricity,
		incl:        el.Inclination,
		raan:        wrapTwoPi(el.RAAN),
		argp:        wrapTwoPi(el.ArgPerigee),
		meanAnomaly: trueToMean(wrapTwoPi(el.ArgLatitude-el.ArgPerigee), el.Eccentricity),
	}
	return m.evaluate(el.Epoch, ks)
}

// Propagate advances o by d. A zero duration returns an identical state.
func (m *TwoBody) Propagate(o Orbit, d time.Duration) (Orbit, error) {
	if o.kepler == nil {
		return Orbit{}, fmt.Errorf("%w: orbit was not built by the two-body model", ErrInvalidElements)
	}
	next := *o.kepler
	next.meanAnomaly = wrapTwoPi(next.meanAnomaly + m.meanMotion(next.semiMajorKm)*d.Seconds())
	return m.evaluate(o.Epoch.Add(d), &next)
}

// Period returns the orbital period for a circular orbit at altitudeKm.
func (m *TwoBody) Period(altitudeKm float64) time.Duration {
	n := m.meanMotion(m.frame.EquatorialRadiusKm + altitudeKm)
	return time.Duration(2 * math.Pi / n * float64(time.Second))
}

func (m *TwoBody) meanMotion(a float64) float64 {
	return math.Sqrt(m.frame.MuKm3S2 / (a * a * a))
}

func (m *TwoBody) evaluate(epoch time.Time, ks *keplerState) (Orbit, error) {
	ecc, err := solveKepler(ks.meanAnomaly, ks.ecc)
	if err != nil {
		return Orbit{}, err
	}

	e := ks.ecc
	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(ecc/2), math.Sqrt(1-e)*math.Cos(ecc/2))
	r := ks.semiMajorKm * (1 - e*math.Cos(ecc))
	p := ks.semiMajorKm * (1 - e*e)
	vScale := math.Sqrt(m.frame.MuKm3S2 / p)
	vr := vScale * e * math.Sin(nu)
	vt := vScale * (1 + e*math.Cos(nu))

	u := ks.argp + nu
	cosO, sinO := math.Cos(ks.raan), math.Sin(ks.raan)
	cosI, sinI := math.Cos(ks.incl), math.Sin(ks.incl)
	cosU, sinU := math.Cos(u), math.Sin(u)

	radial := Vector{
		X: cosO*cosU - sinO*sinU*cosI,
		Y: sinO*cosU + cosO*sinU*cosI,
		Z: sinU * sinI,
	}
	transverse := Vector{
		X: -cosO*sinU - sinO*cosU*cosI,
		Y: -sinO*sinU + cosO*cosU*cosI,
		Z: cosU * sinI,
	}

	o := Orbit{
		Epoch: epoch,
		Position: Vector{
			X: r * radial.X,
			Y: r * radial.Y,
			Z: r * radial.Z,
		},
		Velocity: Vector{
			X: vr*radial.X + vt*transverse.X,
			Y: vr*radial.Y + vt*transverse.Y,
			Z: vr*radial.Z + vt*transverse.Z,
		},
		kepler: ks,
	}
	if !finite(o.Position) || !finite(o.Velocity) {
		return Orbit{}, fmt.Errorf("%w: non-finite state at %s", ErrDiverged, epoch.UTC().Format(time.RFC3339Nano))
	}
	return o, nil
}

// solveKepler returns the eccentric anomaly for mean anomaly m.
func solveKepler(m, e float64) (float64, error) {
	if e == 0 {
		return m, nil
	}
	ecc := m
	if e > 0.8 {
		ecc = math.Pi
	}
	for i := 0; i < keplerMaxIterations; i++ {
		f := ecc - e*math.Sin(ecc) - m
		step := f / (1 - e*math.Cos(ecc))
		ecc -= step
		if math.Abs(step) < keplerTolerance {
			return ecc, nil
		}
	}
	return 0, fmt.Errorf("%w: Kepler equation did not converge (M=%g, e=%g)", ErrDiverged, m, e)
}
