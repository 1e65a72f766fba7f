package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/star/passpredict/internal/metrics"
	"github.com/star/passpredict/internal/passes"
	"github.com/star/passpredict/internal/propagation"
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/transform"
)

// Predictor answers pass and position requests.
type Predictor struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	sampler *propagation.Sampler
}

// New creates a Predictor. logger and m may be nil.
func New(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Predictor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Predictor{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		sampler: propagation.NewSampler(cfg.Propagation, logger, m),
	}
}

// Config returns the effective configuration.
func (p *Predictor) Config() Config { return p.cfg }

// GetPasses predicts the passes of el over loc in the request span starting
// at start.
func (p *Predictor) GetPasses(ctx context.Context, el *tle.ElementSet, loc Location, start time.Time, req PassRequest) (*PassReport, error) {
	if el == nil {
		return nil, errors.New("predictor: nil element set")
	}
	obs, err := p.observer(loc)
	if err != nil {
		return nil, err
	}
	span, opts, err := p.passOptions(req)
	if err != nil {
		return nil, err
	}

	found, err := passes.NewFinder(opts, p.logger, p.metrics).
		Find(ctx, el, obs, sattime.FromTime(start), span)
	if err != nil {
		return nil, err
	}

	report := &PassReport{
		NORADID:  el.NORADID,
		Name:     el.Name,
		Location: loc,
		Passes:   make([]PassSummary, len(found)),
	}
	for i, rec := range found {
		report.Passes[i] = summarize(rec)
	}
	p.logger.Debug("passes predicted",
		"norad_id", el.NORADID,
		"passes", len(found),
		"timespan_days", span,
		"visible_only", opts.VisibleOnly,
	)
	return report, nil
}

// GetPassesBatch predicts passes for several satellites concurrently.
// Request validation fails the whole batch; search failures are reported per
// satellite in PassReport.Error.
func (p *Predictor) GetPassesBatch(ctx context.Context, els []*tle.ElementSet, loc Location, start time.Time, req PassRequest, concurrency int) ([]PassReport, error) {
	obs, err := p.observer(loc)
	if err != nil {
		return nil, err
	}
	span, opts, err := p.passOptions(req)
	if err != nil {
		return nil, err
	}

	results := passes.NewFinder(opts, p.logger, p.metrics).Predict(ctx, passes.Request{
		Observer:    obs,
		Elements:    els,
		Start:       sattime.FromTime(start),
		SpanDays:    span,
		Concurrency: concurrency,
	})

	reports := make([]PassReport, len(results))
	for i, r := range results {
		reports[i] = PassReport{
			NORADID:  r.NORADID,
			Name:     r.Name,
			Location: loc,
			Passes:   make([]PassSummary, len(r.Passes)),
			Error:    r.Error,
		}
		for j, rec := range r.Passes {
			reports[i].Passes[j] = summarize(rec)
		}
	}
	return reports, nil
}

// GetPositions samples the sub-satellite point of el every resolution step
// for the request span starting at start.
func (p *Predictor) GetPositions(ctx context.Context, el *tle.ElementSet, start time.Time, req PositionRequest) ([]PositionRecord, error) {
	if el == nil {
		return nil, errors.New("predictor: nil element set")
	}
	minutes := p.cfg.PositionMinutes
	if req.Minutes != nil {
		minutes = *req.Minutes
	}
	if minutes < 0 {
		return nil, &ValidationError{Field: "mins", Value: minutes, Reason: "must not be negative"}
	}
	if p.cfg.MaxPositionMinutes > 0 && minutes > p.cfg.MaxPositionMinutes {
		return nil, &ValidationError{Field: "mins", Value: minutes, Reason: fmt.Sprintf("must not exceed %d", p.cfg.MaxPositionMinutes)}
	}
	resolution := p.cfg.Resolution
	if req.Resolution != 0 {
		resolution = req.Resolution
	}
	if resolution <= 0 {
		return nil, &ValidationError{Field: "resolution", Value: resolution, Reason: "must be positive"}
	}

	count := int(time.Duration(minutes) * time.Minute / resolution)
	samples, err := p.sampler.Sample(ctx, el, sattime.FromTime(start), count, resolution)
	if err != nil {
		return nil, err
	}

	records := make([]PositionRecord, len(samples))
	for i, s := range samples {
		records[i] = PositionRecord{
			Time: unixSeconds(s.Time),
			Lat:  s.Latitude,
			Lng:  s.Longitude,
			Vel:  s.Speed,
			Alt:  s.Altitude,
		}
	}
	return records, nil
}

// observer validates loc.
func (p *Predictor) observer(loc Location) (transform.ObserverPosition, error) {
	switch {
	case math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90:
		return transform.ObserverPosition{}, &ValidationError{Field: "lat", Value: loc.Lat, Reason: "must be between -90 and 90"}
	case math.IsNaN(loc.Lng) || loc.Lng < -180 || loc.Lng > 180:
		return transform.ObserverPosition{}, &ValidationError{Field: "lng", Value: loc.Lng, Reason: "must be between -180 and 180"}
	}
	obs, err := transform.NewObserverPosition(loc.Lat, loc.Lng, loc.Alt)
	if err != nil {
		return transform.ObserverPosition{}, &ValidationError{Field: "alt", Value: loc.Alt, Reason: err.Error()}
	}
	return obs, nil
}

// passOptions resolves req against the defaults.
func (p *Predictor) passOptions(req PassRequest) (float64, passes.Options, error) {
	span := p.cfg.TimespanDays
	if req.TimespanDays != nil {
		span = *req.TimespanDays
	}
	switch {
	case math.IsNaN(span) || span < 0:
		return 0, passes.Options{}, &ValidationError{Field: "days", Value: span, Reason: "must not be negative"}
	case p.cfg.MaxTimespanDays > 0 && span > p.cfg.MaxTimespanDays:
		return 0, passes.Options{}, &ValidationError{Field: "days", Value: span, Reason: fmt.Sprintf("must not exceed %g", p.cfg.MaxTimespanDays)}
	}

	opts := p.cfg.Passes
	opts.Propagation = p.cfg.Propagation
	opts.ExtendedDetails = p.cfg.ExtendedDetails
	if req.ExtendedDetails != nil {
		opts.ExtendedDetails = *req.ExtendedDetails
	}
	opts.VisibleOnly = p.cfg.VisibleOnly
	if req.VisibleOnly != nil {
		opts.VisibleOnly = *req.VisibleOnly
	}
	return span, opts, nil
}
