package tle

import (
	"time"

	"github.com/star/passpredict/internal/sattime"
)

// ElementSet holds one object's parsed two-line orbital elements.
// Angles are in degrees and mean motion in revolutions per day, as written in
// the element text. An ElementSet is never modified after parsing.
type ElementSet struct {
	Name           string
	NORADID        int
	Classification byte
	IntlDesignator string

	Epoch     sattime.Instant
	EpochTime time.Time
	// EpochYear and EpochDay are the raw YY and DDD.DDDDDDDD epoch fields.
	EpochYear int
	EpochDay  float64

	MeanMotionDot  float64 // first derivative of mean motion / 2, rev/day²
	MeanMotionDDot float64 // second derivative of mean motion / 6, rev/day³
	BStar          float64 // drag term, 1/earth radii

	ElementSetNo int
	Inclination  float64
	RAAN         float64
	Eccentricity float64
	ArgPerigee   float64
	MeanAnomaly  float64
	MeanMotion   float64
	RevNumber    int

	Line1 string
	Line2 string
}

// PeriodMinutes returns the nominal orbital period from the raw mean motion.
func (e *ElementSet) PeriodMinutes() float64 {
	if e.MeanMotion <= 0 {
		return 0
	}
	return sattime.MinutesPerDay / e.MeanMotion
}

// EpochRange represents the minimum and maximum epoch times in a catalog.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// Range returns the epoch range covered by sets. The zero value is returned
// for an empty slice.
func Range(sets []ElementSet) EpochRange {
	if len(sets) == 0 {
		return EpochRange{}
	}
	r := EpochRange{Min: sets[0].EpochTime, Max: sets[0].EpochTime}
	for _, s := range sets[1:] {
		if s.EpochTime.Before(r.Min) {
			r.Min = s.EpochTime
		}
		if s.EpochTime.After(r.Max) {
			r.Max = s.EpochTime
		}
	}
	return r
}
