package orbit

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

const (
	tleLineLength = 69
	maxCatalogNum = 99999
	secondsPerDay = 86400.0
)

type tleState struct {
	sat   satellite.Satellite
	line1 string
	line2 string
}

// SGP4 propagates orbits with the SGP4 model from go-satellite. Orbits are
// described to the library as synthetic two-line element sets derived from
// the Walker elements, so near-Earth perturbations (J2..J4) apply while drag
// is zero. go-satellite samples at whole seconds, so sub-second parts of the
// requested epoch are ignored when evaluating state.
type SGP4 struct {
	frame   Frame
	catalog atomic.Uint32
}

// NewSGP4 returns an SGP4 model using the frame's gravity constants.
func NewSGP4(frame Frame) *SGP4 {
	return &SGP4{frame: frame}
}

// NewOrbit encodes el as a TLE and evaluates it at el.Epoch.
func (m *SGP4) NewOrbit(el Elements) (Orbit, error) {
	num := int(m.catalog.Add(1)-1)%maxCatalogNum + 1
	line1, line2, err := SyntheticTLE(num, el, m.frame)
	if err != nil {
		return Orbit{}, err
	}
	if err := validateTLELines(line1, line2); err != nil {
		return Orbit{}, fmt.Errorf("%w: %v", ErrInvalidElements, err)
	}

	sat := satellite.TLEToSat(line1, line2, m.frame.Gravity)
	if sat.Error != 0 {
		return Orbit{}, fmt.Errorf("%w: sgp4 init code=%d %s", ErrInvalidElements, sat.Error, sat.ErrorStr)
	}
	return m.evaluate(el.Epoch, &tleState{sat: sat, line1: line1, line2: line2})
}

// Propagate evaluates the orbit's element set at o.Epoch+d.
func (m *SGP4) Propagate(o Orbit, d time.Duration) (Orbit, error) {
	if o.tle == nil {
		return Orbit{}, fmt.Errorf("%w: orbit was not built by the sgp4 model", ErrInvalidElements)
	}
	return m.evaluate(o.Epoch.Add(d), o.tle)
}

// TLE returns the synthetic element set behind o, if it has one.
func (m *SGP4) TLE(o Orbit) (string, string, bool) {
	if o.tle == nil {
		return "", "", false
	}
	return o.tle.line1, o.tle.line2, true
}

func (m *SGP4) evaluate(epoch time.Time, ts *tleState) (Orbit, error) {
	t := epoch.UTC()
	pos, vel := satellite.Propagate(ts.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	o := Orbit{
		Epoch:    epoch,
		Position: Vector{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: Vector{X: vel.X, Y: vel.Y, Z: vel.Z},
		tle:      ts,
	}
	// go-satellite resolves whole seconds only; carry the state over the
	// remainder so Position and Velocity are valid at Epoch itself.
	if frac := float64(t.Nanosecond()) / 1e9; frac > 0 {
		o.Position, o.Velocity = m.advance(o.Position, o.Velocity, frac)
	}
	if !finite(o.Position) || !finite(o.Velocity) {
		return Orbit{}, fmt.Errorf("%w: sgp4 output is NaN/Inf at %s", ErrDiverged, t.Format(time.RFC3339))
	}
	// The element set only encodes near-circular LEO..GEO shells; anything
	// inside the Earth or far beyond GEO is a decayed or broken solution.
	if mag := o.Position.Norm(); mag < m.frame.EquatorialRadiusKm-200 || mag > 50000 {
		return Orbit{}, fmt.Errorf("%w: sgp4 position magnitude %.1f km at %s", ErrDiverged, mag, t.Format(time.RFC3339))
	}
	return o, nil
}

// advance moves an inertial state forward by dt seconds (dt < 1) with a
// second-order two-body Taylor step. The error is a few metres at LEO.
func (m *SGP4) advance(r, v Vector, dt float64) (Vector, Vector) {
	rn := r.Norm()
	k := -m.frame.MuKm3S2 / (rn * rn * rn)
	a := Vector{X: k * r.X, Y: k * r.Y, Z: k * r.Z}
	half := 0.5 * dt * dt
	return Vector{
			X: r.X + v.X*dt + a.X*half,
			Y: r.Y + v.Y*dt + a.Y*half,
			Z: r.Z + v.Z*dt + a.Z*half,
		}, Vector{
			X: v.X + a.X*dt,
			Y: v.Y + a.Y*dt,
			Z: v.Z + a.Z*dt,
		}
}

// SyntheticTLE renders el as a two-line element set with catalogue number
// num. Mean motion is derived from the altitude via the frame's
// gravitational parameter; drag terms are zero.
func SyntheticTLE(num int, el Elements, frame Frame) (string, string, error) {
	if el.AltitudeKm <= 0 {
		return "", "", fmt.Errorf("%w: altitude %.3f km", ErrInvalidElements, el.AltitudeKm)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return "", "", fmt.Errorf("%w: eccentricity %v outside [0,1)", ErrInvalidElements, el.Eccentricity)
	}
	if num <= 0 || num > maxCatalogNum {
		return "", "", fmt.Errorf("%w: catalogue number %d", ErrInvalidElements, num)
	}

	a := frame.EquatorialRadiusKm + el.AltitudeKm
	revsPerDay := math.Sqrt(frame.MuKm3S2/(a*a*a)) * secondsPerDay / (2 * math.Pi)
	if revsPerDay >= 100 {
		return "", "", fmt.Errorf("%w: mean motion %.3f rev/day does not fit a TLE", ErrInvalidElements, revsPerDay)
	}

	t := el.Epoch.UTC()
	dayOfYear := float64(t.YearDay()) +
		(float64(t.Hour())*3600+float64(t.Minute())*60+float64(t.Second())+float64(t.Nanosecond())/1e9)/secondsPerDay

	line1 := fmt.Sprintf("1 %05dU %-8s %02d%012.8f  .00000000  00000-0  00000-0 0 %4d",
		num, "00001A", t.Year()%100, dayOfYear, 999)

	mean := trueToMean(wrapTwoPi(el.ArgLatitude-el.ArgPerigee), el.Eccentricity)
	line2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		num,
		degrees(el.Inclination),
		degrees(wrapTwoPi(el.RAAN)),
		int(math.Round(el.Eccentricity*1e7)),
		degrees(wrapTwoPi(el.ArgPerigee)),
		degrees(mean),
		revsPerDay,
		0,
	)

	return line1 + tleChecksum(line1), line2 + tleChecksum(line2), nil
}

// tleChecksum is the modulo-10 sum of digits, counting '-' as one.
func tleChecksum(line string) string {
	sum := 0
	for _, r := range line {
		switch {
		case r >= '0' && r <= '9':
			sum += int(r - '0')
		case r == '-':
			sum++
		}
	}
	return fmt.Sprintf("%d", sum%10)
}

// validateTLELines guards go-satellite, which calls log.Fatal on malformed
// input instead of returning an error.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != tleLineLength {
		return fmt.Errorf("line1 length %d, expected %d", len(line1), tleLineLength)
	}
	if len(line2) != tleLineLength {
		return fmt.Errorf("line2 length %d, expected %d", len(line2), tleLineLength)
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

func degrees(rad float64) float64 {
	d := rad * 180 / math.Pi
	if d >= 359.99995 {
		d = 0
	}
	return d
}
