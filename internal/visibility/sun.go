package visibility

import (
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/transform"
)

const (
	// AstronomicalUnitKm is the astronomical unit in km.
	AstronomicalUnitKm = 1.49597870691e8
	// SunRadiusKm is the solar radius used for the umbra test.
	SunRadiusKm = 696000.0
	// EarthRadiusKm is the equatorial radius of the orbit theory.
	EarthRadiusKm = 6378.135
)

// SunPosition returns the geocentric position of the Sun at t in km, in the
// equatorial frame of date (aligned with TEME to well under an arcminute).
func SunPosition(t sattime.Instant) transform.Vector {
	jd := t.Julian()
	ra, dec := solar.ApparentEquatorial(jd)
	r := solar.Radius(base.J2000Century(jd)) * AstronomicalUnitKm

	return transform.Vector{
		X: r * dec.Cos() * ra.Cos(),
		Y: r * dec.Cos() * ra.Sin(),
		Z: r * dec.Sin(),
	}
}

// Sunlit reports whether the object at state is outside the Earth's umbra at
// t. depth is the eclipse depth in degrees: positive inside the shadow,
// negative in sunlight.
func Sunlit(state transform.PositionTEME, t sattime.Instant) (lit bool, depth float64) {
	sat := state.Position()
	r := sat.Norm()
	if r == 0 {
		return false, 90
	}
	toSun := SunPosition(t).Sub(sat)

	sdEarth := math.Asin(math.Min(1, EarthRadiusKm/r))
	sdSun := math.Asin(SunRadiusKm / toSun.Norm())
	delta := toSun.Angle(sat.Scale(-1))
	d := sdEarth - sdSun - delta

	depth = unit.Angle(d).Deg()
	if sdEarth < sdSun {
		return true, depth
	}
	return d < 0, depth
}

// SunElevation returns the elevation of the Sun in degrees as seen by obs at t.
func SunElevation(obs transform.ObserverPosition, t sattime.Instant) float64 {
	sun := SunPosition(t)
	return transform.ToLookAngles(transform.PositionTEME{X: sun.X, Y: sun.Y, Z: sun.Z}, obs, t).ElevationDeg
}
