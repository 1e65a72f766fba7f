package propagation

import "math"

// solveKepler solves the modified Kepler equation
//
//	U = E - axn*sin(E) + ayn*cos(E)
//
// for E by Newton iteration from E = U, with each step clamped to
// keplerMaxStep. It returns sin and cos of the converged E, or ok=false when
// maxIter steps do not bring the correction below keplerTolerance.
func solveKepler(capu, axn, ayn float64, maxIter int) (sinE, cosE float64, ok bool) {
	epw := capu
	for i := 0; i < maxIter; i++ {
		sinE, cosE = math.Sincos(epw)
		f := capu - ayn*cosE + axn*sinE - epw
		fp := 1 - axn*cosE - ayn*sinE
		delta := f / fp
		if math.Abs(delta) <= keplerTolerance {
			return sinE, cosE, true
		}
		if math.Abs(delta) > keplerMaxStep {
			delta = math.Copysign(keplerMaxStep, delta)
		}
		epw += delta
	}
	return 0, 0, false
}
