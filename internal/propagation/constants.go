package propagation

import "math"

// WGS-72 gravity model, in the canonical units of the analytic theory
// (distance in Earth radii, time in minutes).
const (
	xke       = 0.0743669161 // sqrt(GM) in er^1.5/min
	ck2       = 5.413079e-4  // J2/2
	ck4       = 6.209887e-7  // -3/8 J4
	j3        = -2.53881e-6
	a3ovk2    = -j3 / ck2
	qoms2t    = 1.880279e-9 // ((q0 - s)/er)^4
	sParam    = 1.012229    // s, in Earth radii
	xkmper    = 6378.135    // equatorial radius, km
	vkmps     = xkmper / 60.0
	twoPi     = 2 * math.Pi
	twoThirds = 2.0 / 3.0
)

const (
	minutesPerDay = 1440.0
	// Periods of at least this many days use the deep-space branch.
	deepSpacePeriodDays = 0.15625
	keplerTolerance     = 1e-12
	keplerMaxStep       = 0.95
	simplePerigeeKm     = 220.0
	lowPerigeeKm        = 156.0
)

func mod2Pi(x float64) float64 {
	x = math.Mod(x, twoPi)
	if x < 0 {
		x += twoPi
	}
	return x
}
