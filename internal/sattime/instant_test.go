package sattime

import (
	"math"
	"testing"
	"time"
)

func TestEpochIsZero(t *testing.T) {
	if got := FromTime(Epoch); math.Abs(float64(got)) > 1e-12 {
		t.Errorf("FromTime(Epoch) = %v, want 0", got)
	}
	if got := Instant(0).Julian(); got != JulianOffset {
		t.Errorf("Julian(0) = %.6f, want %.6f", got, JulianOffset)
	}
}

func TestKnownJulianDates(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		jd   float64
	}{
		{"J2000.0 epoch", time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		{"Unix epoch", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), 2440587.5},
		{"Vallado example date", time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC), 2453101.827411875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromTime(tt.time).Julian()
			if diff := math.Abs(got - tt.jd); diff > 1e-6 {
				t.Errorf("Julian(%v) = %.9f, want %.9f (diff=%.2e)", tt.time, got, tt.jd, diff)
			}
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(1985, 6, 1, 3, 4, 5, 0, time.UTC),
		time.Date(2025, 2, 14, 4, 19, 40, 123000000, time.UTC),
		time.Date(2049, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, want := range times {
		got := FromTime(want).Time()
		if d := got.Sub(want); d < -time.Millisecond || d > time.Millisecond {
			t.Errorf("round trip %v -> %v (diff %v)", want, got, d)
		}
	}
}

func TestCalendarRoundTrip(t *testing.T) {
	instants := []Instant{0, 1234.5678, 16480.18032407, 25000.999}
	for _, in := range instants {
		y, m, d := in.Calendar()
		back := FromCalendar(y, m, d)
		if diff := math.Abs(float64(back - in)); diff > 1e-9 {
			t.Errorf("calendar round trip %v -> %d-%02d-%.9f -> %v (diff %.2e)", in, y, m, d, back, diff)
		}
	}
}

func TestCalendarMatchesTime(t *testing.T) {
	in := FromTime(time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC))
	y, m, d := in.Calendar()
	if y != 2025 || m != 2 || math.Abs(d-14.5) > 1e-9 {
		t.Errorf("Calendar() = %d-%d-%.9f, want 2025-2-14.5", y, m, d)
	}
}

func TestUnixRoundTrip(t *testing.T) {
	const sec = 1739535580.25
	if got := FromUnix(sec).Unix(); math.Abs(got-sec) > 1e-4 {
		t.Errorf("Unix round trip = %.6f, want %.6f", got, sec)
	}
}

func TestArithmetic(t *testing.T) {
	base := Instant(100)
	if got := base.AddMinutes(90).Sub(base); math.Abs(got-90) > 1e-9 {
		t.Errorf("AddMinutes/Sub = %v, want 90", got)
	}
	if got := base.AddDuration(36 * time.Hour); math.Abs(float64(got)-101.5) > 1e-12 {
		t.Errorf("AddDuration(36h) = %v, want 101.5", got)
	}
	if got := Days(6 * time.Hour); got != 0.25 {
		t.Errorf("Days(6h) = %v, want 0.25", got)
	}
}
