package core

import (
	"math"

	"github.com/signalsfoundry/walker-mesh/orbit"
)

// WGS-84 ellipsoid used for ground-station placement and local vertical.
const (
	wgs84A  = 6378.137
	wgs84F  = 1 / 298.257223563
	wgs84E2 = wgs84F * (2 - wgs84F)
)

// Vec3 is an Earth-centred Earth-fixed position in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func vec3From(v orbit.Vector) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Geodetic is a latitude/longitude in degrees and a height above the
// ellipsoid in kilometres.
type Geodetic struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

func geodeticFrom(l orbit.LLA) Geodetic {
	return Geodetic{LatDeg: l.LatDeg, LonDeg: l.LonDeg, AltKm: l.AltKm}
}

// ECEF converts the geodetic position to Earth-fixed coordinates.
func (g Geodetic) ECEF() Vec3 {
	lat := g.LatDeg * math.Pi / 180
	lon := g.LonDeg * math.Pi / 180
	sinLat := math.Sin(lat)
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	return Vec3{
		X: (n + g.AltKm) * math.Cos(lat) * math.Cos(lon),
		Y: (n + g.AltKm) * math.Cos(lat) * math.Sin(lon),
		Z: (n*(1-wgs84E2) + g.AltKm) * sinLat,
	}
}

// up returns the unit ellipsoid normal at g.
func (g Geodetic) up() Vec3 {
	lat := g.LatDeg * math.Pi / 180
	lon := g.LonDeg * math.Pi / 180
	return Vec3{
		X: math.Cos(lat) * math.Cos(lon),
		Y: math.Cos(lat) * math.Sin(lon),
		Z: math.Sin(lat),
	}
}

// ElevationDegrees returns the elevation angle of target above the local
// horizon at site, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(site Geodetic, target Vec3) float64 {
	observer := site.ECEF()
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	sinEl := v.Dot(site.up()) / vNorm
	if sinEl > 1 {
		sinEl = 1
	} else if sinEl < -1 {
		sinEl = -1
	}
	return math.Asin(sinEl) * 180.0 / math.Pi
}
