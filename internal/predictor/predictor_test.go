package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/star/passpredict/internal/metrics"
	"github.com/star/passpredict/internal/passes"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/visibility"
)

const (
	issLine1 = "1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996"
	issLine2 = "2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057"
)

var (
	start = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)
	nyc   = Location{Lat: 40.7128, Lng: -74.006, Alt: 10}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func iss(t *testing.T) *tle.ElementSet {
	t.Helper()
	el, err := tle.ParseElements("ISS (ZARYA)", issLine1, issLine2)
	if err != nil {
		t.Fatal(err)
	}
	return el
}

func ptr[T any](v T) *T { return &v }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ExtendedDetails || !cfg.VisibleOnly {
		t.Errorf("extended=%v visible_only=%v", cfg.ExtendedDetails, cfg.VisibleOnly)
	}
	if cfg.TimespanDays != 5 || cfg.MaxTimespanDays != 20 {
		t.Errorf("timespan %v max %v", cfg.TimespanDays, cfg.MaxTimespanDays)
	}
	if cfg.PositionMinutes != 100 || cfg.MaxPositionMinutes != 300 || cfg.Resolution != time.Minute {
		t.Errorf("positions %d max %d resolution %s", cfg.PositionMinutes, cfg.MaxPositionMinutes, cfg.Resolution)
	}

	p := New(Config{}, testLogger(), nil)
	if got := p.Config(); got.TimespanDays != 5 || got.PositionMinutes != 100 || got.Resolution != time.Minute {
		t.Errorf("zero config not defaulted: %+v", got)
	}
}

func TestGetPassesValidation(t *testing.T) {
	p := New(DefaultConfig(), testLogger(), nil)
	el := iss(t)

	tests := []struct {
		name  string
		loc   Location
		req   PassRequest
		field string
	}{
		{"latitude high", Location{Lat: 90.5}, PassRequest{}, "lat"},
		{"latitude low", Location{Lat: -91}, PassRequest{}, "lat"},
		{"latitude NaN", Location{Lat: math.NaN()}, PassRequest{}, "lat"},
		{"longitude", Location{Lng: 180.1}, PassRequest{}, "lng"},
		{"altitude", Location{Alt: -7e6}, PassRequest{}, "alt"},
		{"negative days", nyc, PassRequest{TimespanDays: ptr(-1.0)}, "days"},
		{"too many days", nyc, PassRequest{TimespanDays: ptr(21.0)}, "days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GetPasses(context.Background(), el, tt.loc, start, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
			if !strings.Contains(verr.Error(), tt.field) {
				t.Errorf("message %q does not name the field", verr.Error())
			}
		})
	}
}

func TestGetPassesZeroSpan(t *testing.T) {
	p := New(DefaultConfig(), testLogger(), nil)
	report, err := p.GetPasses(context.Background(), iss(t), nyc, start, PassRequest{TimespanDays: ptr(0.0)})
	if err != nil {
		t.Fatal(err)
	}
	if report.Passes == nil || len(report.Passes) != 0 {
		t.Errorf("passes = %v, want empty", report.Passes)
	}
	if report.Location != nyc {
		t.Errorf("location = %+v", report.Location)
	}
}

func TestGetPassesReport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VisibleOnly = false
	p := New(cfg, testLogger(), nil)

	report, err := p.GetPasses(context.Background(), iss(t), nyc, start, PassRequest{TimespanDays: ptr(1.0)})
	if err != nil {
		t.Fatal(err)
	}
	if report.NORADID != 25544 || report.Name != "ISS (ZARYA)" {
		t.Errorf("report for %d %q", report.NORADID, report.Name)
	}
	if len(report.Passes) < 2 {
		t.Fatalf("got %d passes in a day", len(report.Passes))
	}
	lo, hi := start.Unix(), start.Add(24*time.Hour).Unix()
	for i, ps := range report.Passes {
		if ps.AOSTime < lo || ps.AOSTime > hi {
			t.Errorf("pass %d: aos_time %d outside the window", i, ps.AOSTime)
		}
		if !(ps.AOSTime <= ps.TCATime && ps.TCATime <= ps.LOSTime) {
			t.Errorf("pass %d: times out of order", i)
		}
		if ps.Path != nil {
			t.Errorf("pass %d: path without extended details", i)
		}
		if ps.Visibility == "" {
			t.Errorf("pass %d: empty visibility", i)
		}
	}

	// Visible-only output is a subset of the full output.
	visible, err := p.GetPasses(context.Background(), iss(t), nyc, start, PassRequest{
		TimespanDays: ptr(1.0),
		VisibleOnly:  ptr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(visible.Passes) > len(report.Passes) {
		t.Errorf("visible-only returned %d of %d passes", len(visible.Passes), len(report.Passes))
	}
	for _, ps := range visible.Passes {
		if ps.Visibility != "visible" {
			t.Errorf("visible-only kept a %s pass", ps.Visibility)
		}
	}
}

func TestPassReportJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VisibleOnly = false
	p := New(cfg, testLogger(), nil)
	report, err := p.GetPasses(context.Background(), iss(t), nyc, start, PassRequest{TimespanDays: ptr(1.0)})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	loc, ok := decoded["location"].(map[string]any)
	if !ok || loc["lat"] != nyc.Lat || loc["lng"] != nyc.Lng || loc["alt"] != nyc.Alt {
		t.Errorf("location = %v", decoded["location"])
	}
	list, ok := decoded["passes"].([]any)
	if !ok || len(list) == 0 {
		t.Fatalf("passes = %v", decoded["passes"])
	}
	first := list[0].(map[string]any)
	for _, key := range []string{
		"aos_time", "aos_az", "aos_el",
		"tca_time", "tca_az", "tca_el",
		"los_time", "los_az", "los_el",
		"magnitude", "visibility",
	} {
		if _, ok := first[key]; !ok {
			t.Errorf("pass is missing %q", key)
		}
	}
}

func TestPathKeyFollowsExtendedDetails(t *testing.T) {
	eclipsed := passes.PassRecord{Visibility: visibility.Eclipsed}
	tests := []struct {
		name string
		path []passes.PathPoint
		want string // "" when the key must be absent
	}{
		{"not requested", nil, ""},
		{"requested, nothing visible", []passes.PathPoint{}, `"path":[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := eclipsed
			rec.Path = tt.path
			data, err := json.Marshal(summarize(rec))
			if err != nil {
				t.Fatal(err)
			}
			has := strings.Contains(string(data), `"path"`)
			if tt.want == "" && has {
				t.Errorf("unexpected path key in %s", data)
			}
			if tt.want != "" && !strings.Contains(string(data), tt.want) {
				t.Errorf("%s missing from %s", tt.want, data)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.VisibleOnly = false
	p := New(cfg, testLogger(), nil)
	report, err := p.GetPasses(context.Background(), iss(t), nyc, start, PassRequest{
		TimespanDays:    ptr(1.0),
		ExtendedDetails: ptr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, ps := range report.Passes {
		if ps.Path == nil {
			t.Errorf("pass %d: nil path with extended details", i)
		}
		if ps.VisibleStart == nil && len(ps.Path) != 0 {
			t.Errorf("pass %d: %d path points without a visible window", i, len(ps.Path))
		}
	}
}

func TestGetPassesBatch(t *testing.T) {
	bad := *iss(t)
	bad.NORADID = 99999
	bad.Eccentricity = 2

	cfg := DefaultConfig()
	cfg.VisibleOnly = false
	p := New(cfg, testLogger(), nil)

	reports, err := p.GetPassesBatch(context.Background(), []*tle.ElementSet{iss(t), &bad}, nyc, start,
		PassRequest{TimespanDays: ptr(1.0)}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports", len(reports))
	}
	if reports[0].Error != "" || len(reports[0].Passes) == 0 {
		t.Errorf("ISS report: error %q, %d passes", reports[0].Error, len(reports[0].Passes))
	}
	if reports[1].NORADID != 99999 || reports[1].Error == "" {
		t.Errorf("bad report: %+v", reports[1])
	}

	if _, err := p.GetPassesBatch(context.Background(), nil, Location{Lat: 100}, start, PassRequest{}, 1); err == nil {
		t.Error("invalid location accepted")
	}
}

func TestGetPositions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		t.Fatal(err)
	}
	p := New(DefaultConfig(), testLogger(), m)

	records, err := p.GetPositions(context.Background(), iss(t), start, PositionRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 100 {
		t.Fatalf("got %d records, want 100", len(records))
	}
	for i, r := range records {
		if want := start.Unix() + int64(60*i); r.Time != want {
			t.Errorf("record %d: time %d, want %d", i, r.Time, want)
		}
		if math.Abs(r.Lat) > 52 || r.Lng < -180 || r.Lng > 180 {
			t.Errorf("record %d: lat %.2f lng %.2f", i, r.Lat, r.Lng)
		}
		if r.Alt < 380 || r.Alt > 450 {
			t.Errorf("record %d: alt %.1f km", i, r.Alt)
		}
		if r.Vel < 7.5 || r.Vel > 7.8 {
			t.Errorf("record %d: vel %.3f km/s", i, r.Vel)
		}
	}
	if got := testutil.ToFloat64(m.Samples.WithLabelValues("ok")); got != 100 {
		t.Errorf("samples metric = %v, want 100", got)
	}

	fine, err := p.GetPositions(context.Background(), iss(t), start, PositionRequest{
		Minutes:    ptr(10),
		Resolution: 10 * time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(fine) != 60 {
		t.Errorf("got %d records at 10s, want 60", len(fine))
	}

	none, err := p.GetPositions(context.Background(), iss(t), start, PositionRequest{Minutes: ptr(0)})
	if err != nil || len(none) != 0 {
		t.Errorf("zero minutes: %d records, %v", len(none), err)
	}
}

func TestGetPositionsValidation(t *testing.T) {
	p := New(DefaultConfig(), testLogger(), nil)
	tests := []struct {
		name  string
		req   PositionRequest
		field string
	}{
		{"negative minutes", PositionRequest{Minutes: ptr(-1)}, "mins"},
		{"too many minutes", PositionRequest{Minutes: ptr(301)}, "mins"},
		{"negative resolution", PositionRequest{Resolution: -time.Second}, "resolution"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.GetPositions(context.Background(), iss(t), start, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("err = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestUnlimitedSpans(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPositionMinutes = 0
	p := New(cfg, testLogger(), nil)
	records, err := p.GetPositions(context.Background(), iss(t), start, PositionRequest{Minutes: ptr(400)})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 400 {
		t.Errorf("got %d records", len(records))
	}
}
