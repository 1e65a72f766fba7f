package predictor

import (
	"fmt"
	"math"
	"time"

	"github.com/star/passpredict/internal/passes"
	"github.com/star/passpredict/internal/sattime"
)

// ValidationError reports a request parameter outside its accepted range.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Location is the observer: degrees north and east, metres above the
// ellipsoid.
type Location struct {
	Lat float64 `json:"lat" toml:"lat"`
	Lng float64 `json:"lng" toml:"lng"`
	Alt float64 `json:"alt" toml:"alt"`
}

// PassRequest overrides the pass defaults; nil fields keep them.
type PassRequest struct {
	ExtendedDetails *bool
	VisibleOnly     *bool
	TimespanDays    *float64
}

// PositionRequest overrides the position defaults. Minutes nil keeps the
// default span; Resolution zero keeps the default spacing.
type PositionRequest struct {
	Minutes    *int
	Resolution time.Duration
}

// PathRecord is one visible sample of a pass.
type PathRecord struct {
	Time int64   `json:"time"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Az   float64 `json:"az"`
	El   float64 `json:"el"`
}

// PassSummary is one pass as the API reports it.
type PassSummary struct {
	AOSTime int64   `json:"aos_time"`
	AOSAz   float64 `json:"aos_az"`
	AOSEl   float64 `json:"aos_el"`
	TCATime int64   `json:"tca_time"`
	TCAAz   float64 `json:"tca_az"`
	TCAEl   float64 `json:"tca_el"`
	LOSTime int64   `json:"los_time"`
	LOSAz   float64 `json:"los_az"`
	LOSEl   float64 `json:"los_el"`

	Magnitude  *float64 `json:"magnitude"`
	Visibility string   `json:"visibility"`

	VisibleStart *int64 `json:"visible_start,omitempty"`
	VisibleEnd   *int64 `json:"visible_end,omitempty"`

	// Path is nil unless extended details were requested, and then always
	// present in JSON, empty when no sample was visible.
	Path []PathRecord `json:"path,omitzero"`
}

// PassReport is the pass response for one satellite.
type PassReport struct {
	NORADID  int           `json:"norad_id"`
	Name     string        `json:"name,omitempty"`
	Location Location      `json:"location"`
	Passes   []PassSummary `json:"passes"`
	Error    string        `json:"error,omitempty"`
}

// PositionRecord is one sub-satellite point.
type PositionRecord struct {
	Time int64   `json:"time"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Vel  float64 `json:"vel"` // km/s
	Alt  float64 `json:"alt"` // km
}

func unixSeconds(t sattime.Instant) int64 {
	return int64(math.Round(t.Unix()))
}

func summarize(p passes.PassRecord) PassSummary {
	s := PassSummary{
		AOSTime:    unixSeconds(p.AOS.Time),
		AOSAz:      p.AOS.AzimuthDeg,
		AOSEl:      p.AOS.ElevationDeg,
		TCATime:    unixSeconds(p.TCA.Time),
		TCAAz:      p.TCA.AzimuthDeg,
		TCAEl:      p.TCA.ElevationDeg,
		LOSTime:    unixSeconds(p.LOS.Time),
		LOSAz:      p.LOS.AzimuthDeg,
		LOSEl:      p.LOS.ElevationDeg,
		Magnitude:  p.Magnitude,
		Visibility: p.Visibility.String(),
	}
	if p.Visible != nil {
		start, end := unixSeconds(p.Visible.Start.Time), unixSeconds(p.Visible.End.Time)
		s.VisibleStart, s.VisibleEnd = &start, &end
	}
	if p.Path != nil {
		s.Path = make([]PathRecord, len(p.Path))
		for i, pt := range p.Path {
			s.Path[i] = PathRecord{
				Time: unixSeconds(pt.Time),
				Lat:  pt.LatDeg,
				Lng:  pt.LonDeg,
				Az:   pt.AzimuthDeg,
				El:   pt.ElevationDeg,
			}
		}
	}
	return s
}
