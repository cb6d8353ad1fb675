package orbit

import satellite "github.com/joshuaferrara/go-satellite"

// Frame describes the central body and reference frame every orbit is
// expressed in. It is constructed once at startup and handed to the models
// that need it; nothing in this package reads a global frame.
type Frame struct {
	Name string

	// MuKm3S2 is the gravitational parameter in km^3/s^2.
	MuKm3S2 float64

	// EquatorialRadiusKm is the reference radius altitudes are measured from.
	EquatorialRadiusKm float64

	// Gravity selects the constant set used by the SGP4 model.
	Gravity satellite.Gravity
}

// EarthFrame returns the Earth mean-equator inertial frame with WGS-84
// constants.
func EarthFrame() Frame {
	return Frame{
		Name:               "EME2000",
		MuKm3S2:            398600.4418,
		EquatorialRadiusKm: 6378.137,
		Gravity:            satellite.GravityWGS84,
	}
}
