package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/passpredict/internal/sattime"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared

	// minAltM keeps an observer above the ellipsoid centre (polar radius).
	minAltM = -6356000.0
)

// ErrInvalidGeometry is returned for observer coordinates outside the valid
// ranges or not finite.
var ErrInvalidGeometry = errors.New("invalid observer geometry")

// ObserverPosition is a ground site on the WGS-84 ellipsoid. The ECEF
// position in metres is fixed at construction.
type ObserverPosition struct {
	LatRad, LonRad, AltM float64
	ECEFx, ECEFy, ECEFz  float64
}

// LookAngles is the direction and distance from an observer to a satellite.
// Azimuth is clockwise from north; range-rate is positive when receding.
type LookAngles struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	RangeRateKmS float64
}

// primeVertical is the ellipsoid's prime-vertical radius of curvature at a
// latitude with the given sine, in metres.
func primeVertical(sinLat float64) float64 {
	return wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
}

// NewObserverPosition validates a site given in degrees and metres above the
// ellipsoid and returns it with its ECEF position.
func NewObserverPosition(latDeg, lonDeg, altM float64) (ObserverPosition, error) {
	switch {
	case !isFinite(latDeg) || !isFinite(lonDeg) || !isFinite(altM):
		return ObserverPosition{}, fmt.Errorf("%w: non-finite coordinate", ErrInvalidGeometry)
	case math.Abs(latDeg) > 90:
		return ObserverPosition{}, fmt.Errorf("%w: latitude %.6f outside [-90, 90]", ErrInvalidGeometry, latDeg)
	case math.Abs(lonDeg) > 180:
		return ObserverPosition{}, fmt.Errorf("%w: longitude %.6f outside [-180, 180]", ErrInvalidGeometry, lonDeg)
	case altM <= minAltM:
		return ObserverPosition{}, fmt.Errorf("%w: altitude %.1f m below the ellipsoid centre", ErrInvalidGeometry, altM)
	}

	obs := ObserverPosition{LatRad: latDeg * math.Pi / 180, LonRad: lonDeg * math.Pi / 180, AltM: altM}
	sinLat, cosLat := math.Sincos(obs.LatRad)
	sinLon, cosLon := math.Sincos(obs.LonRad)
	n := primeVertical(sinLat)
	equatorial := (n + altM) * cosLat
	obs.ECEFx = equatorial * cosLon
	obs.ECEFy = equatorial * sinLon
	obs.ECEFz = (n*(1-wgs84E2) + altM) * sinLat
	return obs, nil
}

// LatDeg returns the observer latitude in degrees.
func (o ObserverPosition) LatDeg() float64 { return o.LatRad * 180 / math.Pi }

// LonDeg returns the observer longitude in degrees.
func (o ObserverPosition) LonDeg() float64 { return o.LonRad * 180 / math.Pi }

// GeodeticPoint is a WGS-84 position in degrees and metres.
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ToGeodetic returns the sub-satellite point of a TEME state at t.
// Longitude is in [-180, 180].
func ToGeodetic(state PositionTEME, t sattime.Instant) GeodeticPoint {
	ecef := TEMEToECEF(state, t)
	return ECEFToGeodetic(ecef.X, ecef.Y, ecef.Z)
}

// geodeticTolerance stops the latitude iteration, in radians (about 0.6 mm).
const geodeticTolerance = 1e-10

// ECEFToGeodetic converts an ECEF position in metres to geodetic
// coordinates by fixed-point iteration on the latitude.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	p := math.Hypot(x, y)
	lat := math.Atan2(z, p*(1-wgs84E2))
	for i := 0; i < 10; i++ {
		next := math.Atan2(z+wgs84E2*primeVertical(math.Sin(lat))*math.Sin(lat), p)
		done := math.Abs(next-lat) < geodeticTolerance
		lat = next
		if done {
			break
		}
	}

	sinLat, cosLat := math.Sincos(lat)
	n := primeVertical(sinLat)
	// Near the poles the height follows from z rather than p.
	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180 / math.Pi,
		LonDeg: math.Atan2(y, x) * 180 / math.Pi,
		AltM:   alt,
	}
}

// ToLookAngles computes the look angles from obs to a TEME state at t.
func ToLookAngles(state PositionTEME, obs ObserverPosition, t sattime.Instant) LookAngles {
	return ECEFToLookAngles(obs, TEMEToECEF(state, t))
}

// ECEFToLookAngles returns the look angles from obs to sat, an ECEF state in
// metres. The observer is fixed in ECEF, so the range-rate is the component
// of the satellite's ECEF velocity along the line of sight. A satellite at
// the observer is reported at the zenith with zero range.
func ECEFToLookAngles(obs ObserverPosition, sat PositionECEF) LookAngles {
	los := Vector{X: sat.X - obs.ECEFx, Y: sat.Y - obs.ECEFy, Z: sat.Z - obs.ECEFz}
	rng := los.Norm()
	if rng == 0 {
		return LookAngles{ElevationDeg: 90}
	}

	// Local south-east-up axes.
	sinLat, cosLat := math.Sincos(obs.LatRad)
	sinLon, cosLon := math.Sincos(obs.LonRad)
	south := Vector{X: sinLat * cosLon, Y: sinLat * sinLon, Z: -cosLat}
	east := Vector{X: -sinLon, Y: cosLon}
	up := Vector{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}

	az := math.Atan2(los.Dot(east), -los.Dot(south))
	if az < 0 {
		az += 2 * math.Pi
	}
	vel := Vector{X: sat.VX, Y: sat.VY, Z: sat.VZ}

	return LookAngles{
		AzimuthDeg:   az * 180 / math.Pi,
		ElevationDeg: math.Asin(math.Max(-1, math.Min(1, los.Dot(up)/rng))) * 180 / math.Pi,
		RangeKm:      rng / 1000,
		RangeRateKmS: los.Dot(vel) / rng / 1000,
	}
}

// ObserverTEME returns the observer position in the TEME frame at t, in km.
func ObserverTEME(obs ObserverPosition, t sattime.Instant) Vector {
	return ECEFToTEME(Vector{X: obs.ECEFx / 1000, Y: obs.ECEFy / 1000, Z: obs.ECEFz / 1000}, t)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
