package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/star/passpredict/internal/sattime"
)

// referenceGMST is go-satellite's IAU-82 sidereal time for t, which takes
// whole seconds.
func referenceGMST(t time.Time) float64 {
	return satellite.GSTimeFromDate(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func wrapPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// TestGMSTMatchesReference walks a day in uneven steps from the ISS element
// epoch and across a leap day, comparing sidereal time with go-satellite.
func TestGMSTMatchesReference(t *testing.T) {
	starts := map[string]time.Time{
		"element epoch": time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
		"leap day":      time.Date(2024, 2, 28, 18, 0, 0, 0, time.UTC),
		"J2000":         time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			for step := 0; step < 24; step++ {
				at := start.Add(time.Duration(step*step) * 7 * time.Minute)
				ours := GMST(sattime.FromTime(at))
				if ours < 0 || ours >= 2*math.Pi {
					t.Fatalf("GMST(%v) = %v outside [0, 2π)", at, ours)
				}
				// 1e-8 rad is about 2 milliarcseconds.
				if d := math.Abs(wrapPi(ours - referenceGMST(at))); d > 1e-8 {
					t.Errorf("GMST(%v) differs from go-satellite by %.2e rad", at, d)
				}
			}
		})
	}
}

// TestTEMEToECEFMatchesReference rotates fixed inertial states through one
// sidereal day and compares against go-satellite's ECIToECEF.
func TestTEMEToECEFMatchesReference(t *testing.T) {
	states := []PositionTEME{
		{X: -4012.4, Y: 5131.7, Z: 1802.2, VX: -5.21, VY: -3.02, VZ: 4.63},  // LEO
		{X: 15000.3, Y: -21873.9, Z: 4120.5, VX: 2.41, VY: 1.62, VZ: 2.97}, // GNSS
		{X: 42164.0, Y: 0, Z: 0, VX: 0, VY: 3.0747, VZ: 0},                 // GEO
	}
	start := time.Date(2025, 3, 20, 9, 1, 0, 0, time.UTC)

	for i, st := range states {
		for h := 0; h < 24; h += 5 {
			at := start.Add(time.Duration(h) * time.Hour)
			ours := TEMEToECEF(st, sattime.FromTime(at))
			ref := satellite.ECIToECEF(satellite.Vector3{X: st.X, Y: st.Y, Z: st.Z}, referenceGMST(at))

			d := Vector{X: ours.X / 1000, Y: ours.Y / 1000, Z: ours.Z / 1000}.Sub(Vector{X: ref.X, Y: ref.Y, Z: ref.Z}).Norm()
			if d > 1e-3 {
				t.Errorf("state %d at +%dh: ECEF differs from go-satellite by %.4f km", i, h, d)
			}
			if !ValidateECEF(ours) {
				t.Errorf("state %d at +%dh: implausible ECEF %+v", i, h, ours)
			}
		}
	}
}

// TestToGeodeticMatchesReference compares the sub-satellite point with
// go-satellite's iterative ECIToLLA on the same ellipsoid.
func TestToGeodeticMatchesReference(t *testing.T) {
	tests := []struct {
		name string
		pos  PositionTEME
	}{
		{"northern LEO", PositionTEME{X: 3021.5, Y: -4410.2, Z: 4402.8}},
		{"southern LEO", PositionTEME{X: -5512.0, Y: 1220.7, Z: -3815.4}},
		{"high latitude", PositionTEME{X: 812.3, Y: 640.1, Z: 7012.9}},
		{"MEO", PositionTEME{X: -18400.0, Y: 17100.0, Z: 9800.0}},
	}
	at := time.Date(2025, 6, 21, 2, 42, 0, 0, time.UTC)
	gmst := referenceGMST(at)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToGeodetic(tt.pos, sattime.FromTime(at))
			alt, _, ll := satellite.ECIToLLA(satellite.Vector3{X: tt.pos.X, Y: tt.pos.Y, Z: tt.pos.Z}, gmst)

			const degTol = 1e-4
			if d := math.Abs(got.LatDeg - ll.Latitude*180/math.Pi); d > degTol {
				t.Errorf("latitude %.6f, go-satellite %.6f", got.LatDeg, ll.Latitude*180/math.Pi)
			}
			if d := math.Abs(wrapPi(got.LonDeg*math.Pi/180 - ll.Longitude)); d*180/math.Pi > degTol {
				t.Errorf("longitude %.6f, go-satellite %.6f", got.LonDeg, wrapPi(ll.Longitude)*180/math.Pi)
			}
			if got.LonDeg < -180 || got.LonDeg > 180 {
				t.Errorf("longitude %.4f outside [-180, 180]", got.LonDeg)
			}
			if d := math.Abs(got.AltM/1000 - alt); d > 0.05 {
				t.Errorf("altitude %.3f km, go-satellite %.3f km", got.AltM/1000, alt)
			}
		})
	}
}

// TestTEMEToECEFVelocity checks the Earth-rotation term of the velocity.
func TestTEMEToECEFVelocity(t *testing.T) {
	tests := []struct {
		name string
		teme PositionTEME
		want [3]float64 // m/s
	}{
		{"prograde equatorial", PositionTEME{X: 6778, VY: 7.5}, [3]float64{0, (7.5 - OmegaEarth*6778) * 1000, 0}},
		{"retrograde equatorial", PositionTEME{X: 6778, VY: -7.5}, [3]float64{0, (-7.5 - OmegaEarth*6778) * 1000, 0}},
		{"over the pole", PositionTEME{Z: 6978, VX: 7.4}, [3]float64{7400, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Zero sidereal angle aligns the two frames.
			ecef := TEMEToECEFWithGMST(tt.teme, 0)
			got := [3]float64{ecef.VX, ecef.VY, ecef.VZ}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 0.1 {
					t.Errorf("velocity %v m/s, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestValidateECEF(t *testing.T) {
	tests := []struct {
		name  string
		pos   PositionECEF
		valid bool
	}{
		{"LEO", PositionECEF{X: 6778000}, true},
		{"GEO", PositionECEF{Y: 42164000}, true},
		{"inside Earth", PositionECEF{Z: 5000000}, false},
		{"beyond range", PositionECEF{X: 60000000}, false},
		{"NaN", PositionECEF{X: math.NaN()}, false},
		{"Inf", PositionECEF{Y: math.Inf(-1)}, false},
		{"origin", PositionECEF{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateECEF(tt.pos); got != tt.valid {
				t.Errorf("ValidateECEF(%+v) = %v, want %v", tt.pos, got, tt.valid)
			}
		})
	}
}
