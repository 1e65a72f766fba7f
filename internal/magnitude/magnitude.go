// Package magnitude estimates the apparent visual magnitude of a sunlit
// object from its standard magnitude, range and solar phase angle.
package magnitude

import (
	"math"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/transform"
	"github.com/star/passpredict/internal/visibility"
)

// DefaultStandard is used for objects without a known standard magnitude.
const DefaultStandard = 4.0

// minIlluminated is the smallest illuminated fraction that still yields a
// magnitude.
const minIlluminated = 1e-9

// Estimate returns the apparent magnitude of the object at state as seen by
// obs at t, given its standard magnitude (at 1000 km range and half phase).
//
//	m = standard - 15.75 + 2.5*log10(range² / F),  F = (1 + cos φ) / 2
//
// with φ the Sun-object-observer phase angle. ok is false when the object
// is eclipsed, the range is zero, or the lit fraction facing the observer
// vanishes.
func Estimate(state transform.PositionTEME, obs transform.ObserverPosition, t sattime.Instant, standard float64) (mag float64, ok bool) {
	if lit, _ := visibility.Sunlit(state, t); !lit {
		return 0, false
	}

	sat := state.Position()
	toObs := transform.ObserverTEME(obs, t).Sub(sat)
	rangeKm := toObs.Norm()
	if rangeKm == 0 {
		return 0, false
	}

	toSun := visibility.SunPosition(t).Sub(sat)
	phase := toSun.Angle(toObs)
	f := (1 + math.Cos(phase)) / 2
	if f < minIlluminated {
		return 0, false
	}

	mag = standard - 15.75 + 2.5*math.Log10(rangeKm*rangeKm/f)
	if math.IsNaN(mag) || math.IsInf(mag, 0) {
		return 0, false
	}
	return mag, true
}

// PhaseAngle returns the Sun-object-observer angle in degrees.
func PhaseAngle(state transform.PositionTEME, obs transform.ObserverPosition, t sattime.Instant) float64 {
	sat := state.Position()
	toObs := transform.ObserverTEME(obs, t).Sub(sat)
	toSun := visibility.SunPosition(t).Sub(sat)
	return toSun.Angle(toObs) * 180 / math.Pi
}
