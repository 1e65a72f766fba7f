// Package visibility decides whether an orbiting object can be seen by eye
// from a ground observer: above the horizon, lit by the Sun, and against a
// dark enough sky.
package visibility

import (
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/transform"
)

// Visibility classifies an object as seen from an observer.
type Visibility int

const (
	// BelowHorizon: the object is under the minimum elevation.
	BelowHorizon Visibility = iota
	// Visible: sunlit object in a dark sky.
	Visible
	// Daylight: sunlit object, but the observer's sky is too bright.
	Daylight
	// Eclipsed: the object is in the Earth's shadow.
	Eclipsed
)

func (v Visibility) String() string {
	switch v {
	case BelowHorizon:
		return "below_horizon"
	case Visible:
		return "visible"
	case Daylight:
		return "daylight"
	case Eclipsed:
		return "eclipsed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the classification by name.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Config holds the classification thresholds.
type Config struct {
	MinElevationDeg    float64 // object elevation at or above which it counts as up (default: 0)
	SunElevationMaxDeg float64 // sky is dark when the Sun is at or below this (default: -6, civil twilight)
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinElevationDeg:    0,
		SunElevationMaxDeg: -6,
	}
}

// AboveHorizon reports whether la clears the minimum elevation.
func AboveHorizon(la transform.LookAngles, cfg Config) bool {
	return la.ElevationDeg >= cfg.MinElevationDeg
}

// DarkSky reports whether the Sun is low enough for obs to see a sunlit object.
func DarkSky(obs transform.ObserverPosition, t sattime.Instant, cfg Config) bool {
	return SunElevation(obs, t) <= cfg.SunElevationMaxDeg
}

// Classify returns the visibility of the object at state from obs at t.
func Classify(state transform.PositionTEME, obs transform.ObserverPosition, t sattime.Instant, cfg Config) Visibility {
	if !AboveHorizon(transform.ToLookAngles(state, obs, t), cfg) {
		return BelowHorizon
	}
	if lit, _ := Sunlit(state, t); !lit {
		return Eclipsed
	}
	if DarkSky(obs, t, cfg) {
		return Visible
	}
	return Daylight
}

// IsVisible reports whether Classify gives Visible.
func IsVisible(state transform.PositionTEME, obs transform.ObserverPosition, t sattime.Instant, cfg Config) bool {
	return Classify(state, obs, t, cfg) == Visible
}
