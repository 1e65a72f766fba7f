// Package transform moves propagated states between frames: the inertial
// TEME frame of the propagator, Earth-fixed ECEF, geodetic coordinates and
// an observer's local horizon.
//
// TEME to ECEF is a single rotation by Greenwich mean sidereal time. Polar
// motion and the equation of the equinoxes are ignored; both stay below
// the error of the analytic theory.
package transform

import (
	"math"

	"github.com/star/passpredict/internal/sattime"
)

// PositionTEME is an inertial state in km and km/s.
type PositionTEME struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// Position returns the position vector in km.
func (p PositionTEME) Position() Vector { return Vector{p.X, p.Y, p.Z} }

// Velocity returns the velocity vector in km/s.
func (p PositionTEME) Velocity() Vector { return Vector{p.VX, p.VY, p.VZ} }

// PositionECEF is an Earth-fixed state in m and m/s.
type PositionECEF struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// rotateZ turns v by angle about the Z axis, frame-wise: the result is v
// expressed in axes rotated by +angle.
func rotateZ(v Vector, angle float64) Vector {
	s, c := math.Sincos(angle)
	return Vector{
		X: c*v.X + s*v.Y,
		Y: c*v.Y - s*v.X,
		Z: v.Z,
	}
}

// TEMEToECEF expresses teme in the Earth-fixed frame at t.
func TEMEToECEF(teme PositionTEME, t sattime.Instant) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST is TEMEToECEF for a known sidereal angle in radians.
// The velocity loses the frame rotation: v_ecef = R(θ)·v − ω × r_ecef.
func TEMEToECEFWithGMST(teme PositionTEME, gmst float64) PositionECEF {
	r := rotateZ(teme.Position(), gmst)
	v := rotateZ(teme.Velocity(), gmst)
	v.X += OmegaEarth * r.Y
	v.Y -= OmegaEarth * r.X

	return PositionECEF{
		X: r.X * 1000, Y: r.Y * 1000, Z: r.Z * 1000,
		VX: v.X * 1000, VY: v.Y * 1000, VZ: v.Z * 1000,
	}
}

// ECEFToTEME is the inverse position rotation; ecef and the result are in km.
func ECEFToTEME(ecef Vector, t sattime.Instant) Vector {
	return rotateZ(ecef, -GMST(t))
}

// Plausible orbit radii for ValidateECEF.
const (
	minOrbitRadiusM = 6200e3
	maxOrbitRadiusM = 50000e3
)

// ValidateECEF reports whether pos is finite and at a radius an Earth
// satellite can have.
func ValidateECEF(pos PositionECEF) bool {
	if !isFinite(pos.X) || !isFinite(pos.Y) || !isFinite(pos.Z) {
		return false
	}
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	return r >= minOrbitRadiusM && r <= maxOrbitRadiusM
}
