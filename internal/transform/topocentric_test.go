package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/star/passpredict/internal/sattime"
)

func mustObserver(t *testing.T, latDeg, lonDeg, altM float64) ObserverPosition {
	t.Helper()
	obs, err := NewObserverPosition(latDeg, lonDeg, altM)
	if err != nil {
		t.Fatalf("NewObserverPosition(%v, %v, %v): %v", latDeg, lonDeg, altM, err)
	}
	return obs
}

func ecefAt(o ObserverPosition) PositionECEF {
	return PositionECEF{X: o.ECEFx, Y: o.ECEFy, Z: o.ECEFz}
}

func TestObserverRadius(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon, alt float64
		radius        float64 // m
	}{
		{"equator", 0, 0, 0, 6378137.0},
		{"equator 100 m", 0, 0, 100, 6378237.0},
		{"north pole", 90, 0, 0, 6356752.3},
		{"south pole high", -90, 45, 2835, 6359587.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := mustObserver(t, tt.lat, tt.lon, tt.alt)
			r := Vector{X: obs.ECEFx, Y: obs.ECEFy, Z: obs.ECEFz}.Norm()
			if math.Abs(r-tt.radius) > 1 {
				t.Errorf("radius = %.1f m, want %.1f m", r, tt.radius)
			}
		})
	}
}

func TestECEFToLookAnglesGeometry(t *testing.T) {
	obs := mustObserver(t, 0, 0, 0)
	tests := []struct {
		name    string
		sat     PositionECEF
		az, el  float64 // degrees, az ignored when negative
		tol     float64
		rangeKm float64 // ignored when zero
	}{
		{"overhead", PositionECEF{X: obs.ECEFx + 400e3}, -1, 90, 0.01, 400},
		{"north", ecefAt(mustObserver(t, 10, 0, 400e3)), 0, -100, 1, 0},
		{"east", ecefAt(mustObserver(t, 0, 10, 400e3)), 90, -100, 1, 0},
		{"south", ecefAt(mustObserver(t, -10, 0, 400e3)), 180, -100, 1, 0},
		{"west", ecefAt(mustObserver(t, 0, -10, 400e3)), 270, -100, 1, 0},
		{"antipode", PositionECEF{X: -7000e3}, -1, -90, 0.01, 13378.137},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			la := ECEFToLookAngles(obs, tt.sat)
			if tt.az >= 0 {
				d := math.Abs(la.AzimuthDeg - tt.az)
				if d > 180 {
					d = 360 - d
				}
				if d > tt.tol {
					t.Errorf("azimuth = %.3f, want %.1f", la.AzimuthDeg, tt.az)
				}
			}
			if tt.el >= -90 && math.Abs(la.ElevationDeg-tt.el) > tt.tol {
				t.Errorf("elevation = %.3f, want %.1f", la.ElevationDeg, tt.el)
			}
			if tt.rangeKm > 0 && math.Abs(la.RangeKm-tt.rangeKm) > 0.01 {
				t.Errorf("range = %.3f km, want %.3f", la.RangeKm, tt.rangeKm)
			}
			if la.AzimuthDeg < 0 || la.AzimuthDeg >= 360 {
				t.Errorf("azimuth %.3f outside [0, 360)", la.AzimuthDeg)
			}
		})
	}

	// 20 degrees of arc away at 400 km the satellite is at the horizon.
	low := ECEFToLookAngles(obs, ecefAt(mustObserver(t, 0, 20, 400e3)))
	if low.ElevationDeg < -5 || low.ElevationDeg > 20 {
		t.Errorf("low pass elevation = %.2f", low.ElevationDeg)
	}
}

func TestECEFToLookAngles_RangeRateSign(t *testing.T) {
	obs := mustObserver(t, 0, 0, 0)
	above := ecefAt(obs)
	above.X += 500000

	above.VX = -2000
	if la := ECEFToLookAngles(obs, above); math.Abs(la.RangeRateKmS+2.0) > 1e-9 {
		t.Errorf("approaching range-rate = %.6f km/s, want -2", la.RangeRateKmS)
	}

	above.VX = 3000
	if la := ECEFToLookAngles(obs, above); math.Abs(la.RangeRateKmS-3.0) > 1e-9 {
		t.Errorf("receding range-rate = %.6f km/s, want 3", la.RangeRateKmS)
	}

	// Motion across the line of sight does not change range.
	above.VX, above.VY = 0, 7000
	if la := ECEFToLookAngles(obs, above); math.Abs(la.RangeRateKmS) > 1e-9 {
		t.Errorf("tangential range-rate = %.6f km/s, want 0", la.RangeRateKmS)
	}
}

func TestNewObserverPosition_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon, alt float64
	}{
		{"lat above 90", 90.5, 0, 0},
		{"lat below -90", -91, 0, 0},
		{"lon above 180", 0, 180.1, 0},
		{"lon below -180", 0, -200, 0},
		{"NaN lat", math.NaN(), 0, 0},
		{"Inf alt", 0, 0, math.Inf(1)},
		{"below centre", 0, 0, -7e6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewObserverPosition(tt.lat, tt.lon, tt.alt)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("err = %v, want ErrInvalidGeometry", err)
			}
		})
	}

	for _, ok := range [][3]float64{{90, 180, 0}, {-90, -180, -400}, {51.5, -0.1, 8848}} {
		if _, err := NewObserverPosition(ok[0], ok[1], ok[2]); err != nil {
			t.Errorf("NewObserverPosition(%v) = %v, want nil", ok, err)
		}
	}
}

func TestObserverDegrees(t *testing.T) {
	obs := mustObserver(t, -33.8688, 151.2093, 58)
	if math.Abs(obs.LatDeg()+33.8688) > 1e-12 || math.Abs(obs.LonDeg()-151.2093) > 1e-12 {
		t.Errorf("LatDeg/LonDeg = %v, %v", obs.LatDeg(), obs.LonDeg())
	}
}

func TestECEFToGeodeticRoundTrip(t *testing.T) {
	for _, c := range [][3]float64{{0, 0, 0}, {45, 90, 1000}, {-60, -120, 420000}, {89.9, 10, 35786000}} {
		obs := mustObserver(t, c[0], c[1], c[2])
		g := ECEFToGeodetic(obs.ECEFx, obs.ECEFy, obs.ECEFz)
		if math.Abs(g.LatDeg-c[0]) > 1e-6 || math.Abs(g.LonDeg-c[1]) > 1e-6 || math.Abs(g.AltM-c[2]) > 1e-2 {
			t.Errorf("round trip %v -> %+v", c, g)
		}
	}
}

func TestObserverTEMERoundTrip(t *testing.T) {
	obs := mustObserver(t, 47.6, -122.3, 50)
	at := sattime.FromCalendar(2025, 2, 14.25)

	r := ObserverTEME(obs, at)
	back := TEMEToECEF(PositionTEME{X: r.X, Y: r.Y, Z: r.Z}, at)
	if math.Abs(back.X-obs.ECEFx) > 1e-3 || math.Abs(back.Y-obs.ECEFy) > 1e-3 || math.Abs(back.Z-obs.ECEFz) > 1e-3 {
		t.Errorf("ObserverTEME does not invert TEMEToECEF: got [%.3f %.3f %.3f], want [%.3f %.3f %.3f]",
			back.X, back.Y, back.Z, obs.ECEFx, obs.ECEFy, obs.ECEFz)
	}
}

func TestToLookAnglesMatchesECEFPath(t *testing.T) {
	obs := mustObserver(t, 0, 0, 0)
	at := sattime.FromCalendar(2025, 2, 14.5)

	// Place the satellite 400 km above the observer in TEME.
	up := ObserverTEME(obs, at)
	up = up.Scale((up.Norm() + 400) / up.Norm())
	state := PositionTEME{X: up.X, Y: up.Y, Z: up.Z}

	la := ToLookAngles(state, obs, at)
	if math.Abs(la.ElevationDeg-90) > 0.01 || math.Abs(la.RangeKm-400) > 0.01 {
		t.Errorf("overhead look angles = %+v", la)
	}

	g := ToGeodetic(state, at)
	if math.Abs(g.LatDeg) > 1e-6 || math.Abs(g.LonDeg) > 1e-6 || math.Abs(g.AltM-400000) > 1 {
		t.Errorf("sub-point = %+v, want (0, 0, 400 km)", g)
	}
}
