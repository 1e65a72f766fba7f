package transform

import (
	"math"

	"github.com/star/passpredict/internal/sattime"
)

// OmegaEarth is Earth's sidereal rotation rate in rad/s.
const OmegaEarth = 7.292115146706979e-5

// j2000 is 2000-01-01 12:00 UT as an Instant.
const j2000 = sattime.Instant(2451545.0 - sattime.JulianOffset)

// IAU 1982 sidereal time polynomial, in seconds of time, over Julian
// centuries of UT1 since J2000. The linear term includes the 876600 hours
// of a Julian century.
const (
	gmst0 = 67310.54841
	gmst1 = 876600*3600 + 8640184.812866
	gmst2 = 0.093104
	gmst3 = -6.2e-6
)

// GMST returns Greenwich mean sidereal time at t in radians, in [0, 2π).
// UTC stands in for UT1.
func GMST(t sattime.Instant) float64 {
	c := float64(t-j2000) / 36525
	sec := gmst0 + c*(gmst1+c*(gmst2+c*gmst3))

	theta := math.Mod(sec/240*math.Pi/180, 2*math.Pi)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return theta
}
