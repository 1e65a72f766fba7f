// Package passes finds the intervals in which an orbiting object is above an
// observer's horizon and annotates each with rise, culmination and set
// geometry, visibility and an estimated magnitude.
package passes

import (
	"errors"
	"time"

	"github.com/star/passpredict/internal/magnitude"
	"github.com/star/passpredict/internal/propagation"
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/visibility"
)

// ErrScanBudget is returned when a search needs more coarse steps than
// Options.MaxScanSteps allows.
var ErrScanBudget = errors.New("pass search exceeded scan budget")

// PassEvent is the observer geometry at one instant of a pass.
type PassEvent struct {
	Time         sattime.Instant `json:"time"`
	AzimuthDeg   float64         `json:"az"`
	ElevationDeg float64         `json:"el"`
}

// PathPoint is a visible sample along a pass.
type PathPoint struct {
	Time         sattime.Instant `json:"time"`
	LatDeg       float64         `json:"lat"`
	LonDeg       float64         `json:"lng"`
	AzimuthDeg   float64         `json:"az"`
	ElevationDeg float64         `json:"el"`
}

// VisibleWindow is the first and last visible detail sample of a pass.
type VisibleWindow struct {
	Start PassEvent `json:"start"`
	End   PassEvent `json:"end"`
}

// PassRecord describes one pass. AOS.Time < TCA.Time < LOS.Time.
type PassRecord struct {
	AOS PassEvent `json:"aos"`
	TCA PassEvent `json:"tca"`
	LOS PassEvent `json:"los"`

	Magnitude  *float64              `json:"magnitude"` // nil when not illuminated
	Visibility visibility.Visibility `json:"visibility"`

	Visible *VisibleWindow `json:"visible,omitempty"` // nil when no sample is visible
	Path    []PathPoint    `json:"path,omitzero"`     // non-nil only with ExtendedDetails
}

// Duration returns LOS minus AOS.
func (p PassRecord) Duration() time.Duration {
	return time.Duration(p.LOS.Time.Sub(p.AOS.Time) * float64(time.Minute))
}

// Options tune a pass search. Start from DefaultOptions; zero durations and
// counts are replaced by their defaults, thresholds are used as given.
type Options struct {
	MinElevationDeg     float64 // horizon threshold (default: 0)
	MinPeakElevationDeg float64 // drop passes culminating lower (default: 0)
	SunElevationMaxDeg  float64 // darkest sky needed for Visible (default: -6)

	CoarseStep   time.Duration // scan step (default: 1m)
	Tolerance    time.Duration // AOS/LOS/TCA refinement (default: 1s)
	DetailStep   time.Duration // spacing of detail samples (default: 10s)
	MaxScanSteps int           // coarse step budget (default: 200000)

	ExtendedDetails bool // keep the visible path
	VisibleOnly     bool // drop passes whose TCA is not Visible

	Magnitudes  *magnitude.Table // standard magnitudes (default: DefaultStandard for all)
	Propagation propagation.Config
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MinElevationDeg:     0,
		MinPeakElevationDeg: 0,
		SunElevationMaxDeg:  -6,
		CoarseStep:          time.Minute,
		Tolerance:           time.Second,
		DetailStep:          10 * time.Second,
		MaxScanSteps:        200000,
		Propagation:         propagation.DefaultConfig(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CoarseStep <= 0 {
		o.CoarseStep = d.CoarseStep
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.DetailStep <= 0 {
		o.DetailStep = d.DetailStep
	}
	if o.MaxScanSteps <= 0 {
		o.MaxScanSteps = d.MaxScanSteps
	}
	return o
}

// Visibility returns the classifier thresholds of o.
func (o Options) Visibility() visibility.Config {
	return visibility.Config{
		MinElevationDeg:    o.MinElevationDeg,
		SunElevationMaxDeg: o.SunElevationMaxDeg,
	}
}
