package orbit

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// LLA is a geodetic position: degrees of latitude and longitude and
// kilometres of height above the ellipsoid.
type LLA struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// JulianDate returns the Julian date of t including its sub-second part.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	jd := satellite.JDay(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	return jd + float64(t.Nanosecond())/1e9/86400.0
}

// GMST returns Greenwich mean sidereal time at t in radians.
func GMST(t time.Time) float64 {
	return satellite.ThetaG_JD(JulianDate(t))
}

// ECEF rotates the inertial position of o into the Earth-fixed frame.
func ECEF(o Orbit) Vector {
	p := satellite.ECIToECEF(toSat(o.Position), GMST(o.Epoch))
	return Vector{X: p.X, Y: p.Y, Z: p.Z}
}

// Geodetic returns the sub-satellite point and height of o.
func Geodetic(o Orbit) LLA {
	alt, _, ll := satellite.ECIToLLA(toSat(o.Position), GMST(o.Epoch))
	lon := math.Mod(ll.Longitude*180/math.Pi, 360)
	if lon > 180 {
		lon -= 360
	} else if lon <= -180 {
		lon += 360
	}
	return LLA{
		LatDeg: ll.Latitude * 180 / math.Pi,
		LonDeg: lon,
		AltKm:  alt,
	}
}

// VelocityZ returns the inertial velocity component normal to the equator.
// Non-negative means the satellite is on the ascending half of its orbit.
func VelocityZ(o Orbit) float64 {
	return o.Velocity.Z
}

func toSat(v Vector) satellite.Vector3 {
	return satellite.Vector3{X: v.X, Y: v.Y, Z: v.Z}
}
