// Package predictor is the request boundary of the pass and position
// services. It validates observer and request parameters, applies the
// service defaults and renders results in the wire shape of the API:
// Unix-second timestamps, degrees and kilometres.
package predictor

import (
	"time"

	"github.com/star/passpredict/internal/passes"
	"github.com/star/passpredict/internal/propagation"
)

// Config holds the service defaults and limits.
type Config struct {
	ExtendedDetails bool    // default for PassRequest.ExtendedDetails
	VisibleOnly     bool    // default for PassRequest.VisibleOnly
	TimespanDays    float64 // default pass search span
	MaxTimespanDays float64 // 0 for no limit

	PositionMinutes    int           // default position span
	MaxPositionMinutes int           // 0 for no limit
	Resolution         time.Duration // default position spacing

	Passes      passes.Options
	Propagation propagation.Config
}

// DefaultConfig returns the limits of the public web service.
func DefaultConfig() Config {
	return Config{
		ExtendedDetails:    false,
		VisibleOnly:        true,
		TimespanDays:       5,
		MaxTimespanDays:    20,
		PositionMinutes:    100,
		MaxPositionMinutes: 300,
		Resolution:         time.Minute,
		Passes:             passes.DefaultOptions(),
		Propagation:        propagation.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TimespanDays <= 0 {
		c.TimespanDays = d.TimespanDays
	}
	if c.PositionMinutes <= 0 {
		c.PositionMinutes = d.PositionMinutes
	}
	if c.Resolution <= 0 {
		c.Resolution = d.Resolution
	}
	if c.MaxTimespanDays < 0 {
		c.MaxTimespanDays = 0
	}
	if c.MaxPositionMinutes < 0 {
		c.MaxPositionMinutes = 0
	}
	return c
}
