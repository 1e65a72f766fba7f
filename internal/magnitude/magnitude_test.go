package magnitude

import (
	"math"
	"testing"
	"time"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/transform"
	"github.com/star/passpredict/internal/visibility"
)

var at = sattime.FromTime(time.Date(2025, 3, 20, 9, 1, 0, 0, time.UTC))

// around returns a TEME position of radius r km whose direction makes angle
// degrees with the Sun.
func around(angleDeg, r float64) transform.PositionTEME {
	s := visibility.SunPosition(at)
	s = s.Scale(1 / s.Norm())
	p := transform.Vector{X: s.Y, Y: -s.X}
	p = p.Scale(1 / p.Norm())

	a := angleDeg * math.Pi / 180
	u := s.Scale(math.Cos(a)).Add(p.Scale(math.Sin(a))).Scale(r)
	return transform.PositionTEME{X: u.X, Y: u.Y, Z: u.Z}
}

func observerUnder(t *testing.T, angleDeg float64) transform.ObserverPosition {
	t.Helper()
	sub := transform.ToGeodetic(around(angleDeg, 7000), at)
	obs, err := transform.NewObserverPosition(sub.LatDeg, sub.LonDeg, 0)
	if err != nil {
		t.Fatal(err)
	}
	return obs
}

func TestEstimateReferenceGeometry(t *testing.T) {
	obs := observerUnder(t, 105)
	// 1000 km straight up from an equatorial observer at dusk.
	state := around(105, 7378.135)

	mag, ok := Estimate(state, obs, at, DefaultStandard)
	if !ok {
		t.Fatal("expected a magnitude for a sunlit object")
	}

	la := transform.ToLookAngles(state, obs, at)
	phase := PhaseAngle(state, obs, at)
	if math.Abs(phase-75) > 0.5 {
		t.Errorf("phase angle %.3f deg, want ~75", phase)
	}
	f := (1 + math.Cos(phase*math.Pi/180)) / 2
	want := DefaultStandard - 15.75 + 2.5*math.Log10(la.RangeKm*la.RangeKm/f)
	if math.Abs(mag-want) > 1e-6 {
		t.Errorf("magnitude %.6f, want %.6f", mag, want)
	}
	if math.Abs(mag-3.75) > 0.05 {
		t.Errorf("magnitude %.3f, want ~3.75", mag)
	}
}

func TestEstimateFainterWithRange(t *testing.T) {
	obs := observerUnder(t, 105)
	near, ok1 := Estimate(around(105, 6778), obs, at, DefaultStandard)
	far, ok2 := Estimate(around(105, 8378), obs, at, DefaultStandard)
	if !ok1 || !ok2 {
		t.Fatalf("ok = %v, %v", ok1, ok2)
	}
	if far <= near {
		t.Errorf("farther object brighter: near %.2f, far %.2f", near, far)
	}

	brighter, _ := Estimate(around(105, 6778), obs, at, DefaultStandard-2)
	if math.Abs(near-brighter-2) > 1e-9 {
		t.Errorf("standard magnitude offset not carried: %.4f vs %.4f", near, brighter)
	}
}

func TestEstimateUndefined(t *testing.T) {
	obs := observerUnder(t, 170)
	if _, ok := Estimate(around(170, 6778), obs, at, DefaultStandard); ok {
		t.Error("eclipsed object should have no magnitude")
	}

	noon := observerUnder(t, 0)
	p := transform.ObserverTEME(noon, at)
	if _, ok := Estimate(transform.PositionTEME{X: p.X, Y: p.Y, Z: p.Z}, noon, at, DefaultStandard); ok {
		t.Error("zero range should have no magnitude")
	}
}

func TestTable(t *testing.T) {
	tab := NewTable(5.5, map[int]float64{25544: -1.8})
	if got := tab.Lookup(25544); got != -1.8 {
		t.Errorf("Lookup(25544) = %v", got)
	}
	if got := tab.Lookup(1); got != 5.5 {
		t.Errorf("Lookup(1) = %v, want table default", got)
	}
	tab.Set(1, 2.0)
	if got := tab.Lookup(1); got != 2.0 || tab.Len() != 2 {
		t.Errorf("after Set: Lookup(1) = %v, Len = %d", got, tab.Len())
	}

	var zero Table
	if got := zero.Lookup(25544); got != DefaultStandard {
		t.Errorf("zero table Lookup = %v", got)
	}
	zero.Set(7, 1)
	if got := zero.Lookup(7); got != 1 {
		t.Errorf("zero table after Set = %v", got)
	}

	var nilTable *Table
	if got := nilTable.Lookup(25544); got != DefaultStandard || nilTable.Len() != 0 {
		t.Errorf("nil table Lookup = %v", got)
	}
}
