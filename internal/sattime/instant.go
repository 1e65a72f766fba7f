// Package sattime provides the continuous time coordinate used by the
// propagator and the pass search.
//
// An Instant is a count of fractional days since 1979-12-31 00:00:00 UTC,
// the "day number" used by classic amateur tracking software. It is a plain
// float64 so search loops can step and bisect it directly.
package sattime

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Instant is fractional days since 1979-12-31 00:00:00 UTC.
type Instant float64

const (
	// JulianOffset is the Julian date of Instant zero.
	JulianOffset = 2444238.5

	// MinutesPerDay is the number of minutes in a day.
	MinutesPerDay = 1440.0

	// SecondsPerDay is the number of seconds in a day.
	SecondsPerDay = 86400.0

	// unixOffsetDays is Instant zero expressed in days since the Unix epoch.
	unixOffsetDays = 3651.0
)

// Epoch is the reference time of Instant zero.
var Epoch = time.Date(1979, 12, 31, 0, 0, 0, 0, time.UTC)

// FromTime converts a time.Time to an Instant.
func FromTime(t time.Time) Instant {
	sec := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return FromUnix(sec)
}

// Now returns the current Instant.
func Now() Instant {
	return FromTime(time.Now())
}

// FromUnix converts Unix seconds to an Instant.
func FromUnix(sec float64) Instant {
	return Instant(sec/SecondsPerDay - unixOffsetDays)
}

// FromJulian converts a Julian date to an Instant.
func FromJulian(jd float64) Instant {
	return Instant(jd - JulianOffset)
}

// FromCalendar converts a Gregorian calendar date with fractional day to an
// Instant. Day 1.5 is noon on the first of the month.
func FromCalendar(year, month int, day float64) Instant {
	return FromJulian(julian.CalendarGregorianToJD(year, month, day))
}

// Julian returns the Julian date of the instant.
func (i Instant) Julian() float64 {
	return float64(i) + JulianOffset
}

// Unix returns the instant as Unix seconds.
func (i Instant) Unix() float64 {
	return (float64(i) + unixOffsetDays) * SecondsPerDay
}

// Time converts the instant to a UTC time.Time, rounded to the microsecond.
func (i Instant) Time() time.Time {
	sec := i.Unix()
	whole := math.Floor(sec)
	nsec := math.Round((sec-whole)*1e6) * 1e3
	return time.Unix(int64(whole), int64(nsec)).UTC()
}

// Calendar returns the Gregorian calendar date with fractional day.
func (i Instant) Calendar() (year, month int, day float64) {
	return julian.JDToCalendar(i.Julian())
}

// AddMinutes returns the instant shifted by m minutes.
func (i Instant) AddMinutes(m float64) Instant {
	return i + Instant(m/MinutesPerDay)
}

// AddDays returns the instant shifted by d days.
func (i Instant) AddDays(d float64) Instant {
	return i + Instant(d)
}

// AddDuration returns the instant shifted by d.
func (i Instant) AddDuration(d time.Duration) Instant {
	return i + Instant(d.Seconds()/SecondsPerDay)
}

// Sub returns i - j in minutes.
func (i Instant) Sub(j Instant) float64 {
	return float64(i-j) * MinutesPerDay
}

// Days converts a duration to fractional days.
func Days(d time.Duration) float64 {
	return d.Seconds() / SecondsPerDay
}
