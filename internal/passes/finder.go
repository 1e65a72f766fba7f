package passes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/star/passpredict/internal/magnitude"
	"github.com/star/passpredict/internal/metrics"
	"github.com/star/passpredict/internal/propagation"
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/tracing"
	"github.com/star/passpredict/internal/transform"
	"github.com/star/passpredict/internal/visibility"
)

// scanState is the coarse scan state.
type scanState int

const (
	searching scanState = iota // below the horizon, looking for a rise
	inPass                     // above the horizon, looking for the set
	skipping                   // up at the window start, waiting for it to set
)

// Finder runs pass searches with fixed options.
type Finder struct {
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewFinder creates a Finder. logger and m may be nil.
func NewFinder(opts Options, logger *slog.Logger, m *metrics.Metrics) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		opts:    opts.withDefaults(),
		logger:  logger,
		metrics: m,
	}
}

// FindPasses searches with a one-off Finder.
func FindPasses(ctx context.Context, el *tle.ElementSet, obs transform.ObserverPosition, start sattime.Instant, spanDays float64, opts Options) ([]PassRecord, error) {
	return NewFinder(opts, nil, nil).Find(ctx, el, obs, start, spanDays)
}

// Find returns the passes of el over obs whose AOS lies in
// [start, start+spanDays], in time order. A pass already above the horizon
// at start is not reported; a pass rising before the window end is followed
// to its LOS even past the end. spanDays <= 0 yields no passes.
//
// Coarse steps taken past the window end while following a pass count
// against MaxScanSteps. An object that rises near the end and never sets
// exhausts the budget, and the search then fails with ErrScanBudget,
// discarding the passes found before it.
func (f *Finder) Find(ctx context.Context, el *tle.ElementSet, obs transform.ObserverPosition, start sattime.Instant, spanDays float64) (passes []PassRecord, err error) {
	if spanDays <= 0 {
		return []PassRecord{}, nil
	}

	catalog := 0
	if el != nil {
		catalog = el.NORADID
	}
	ctx, span := tracing.StartSpan(ctx, "passes.FindPasses", catalog,
		attribute.Float64("span_days", spanDays),
	)
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Int("passes", len(passes)))
		}
		tracing.EndSpan(span, err)
	}()

	model, err := propagation.NewModel(el, f.opts.Propagation)
	if err != nil {
		return nil, err
	}

	s := &search{
		opts:     f.opts,
		model:    model,
		obs:      obs,
		standard: f.opts.Magnitudes.Lookup(catalog),
	}

	began := time.Now()
	passes, err = s.run(ctx, start, start.AddDays(spanDays))
	duration := time.Since(began)

	f.metrics.RecordPassSearch(duration, len(passes), err)
	f.metrics.RecordPropagations(model.Kind().String(), s.evals, err)

	f.logger.Debug("pass search complete",
		"norad_id", catalog,
		"passes", len(passes),
		"evaluations", s.evals,
		"duration_ms", duration.Milliseconds(),
		"error", err,
	)
	if err != nil {
		return nil, fmt.Errorf("find passes for catalog %d: %w", catalog, err)
	}
	return passes, nil
}

// search holds the per-call state of one pass search.
type search struct {
	opts     Options
	model    *propagation.Model
	obs      transform.ObserverPosition
	standard float64
	evals    int
}

// look propagates to t and returns the state and look angles.
func (s *search) look(t sattime.Instant) (transform.PositionTEME, transform.LookAngles, error) {
	s.evals++
	state, err := s.model.Propagate(t)
	if err != nil {
		return transform.PositionTEME{}, transform.LookAngles{}, err
	}
	return state, transform.ToLookAngles(state, s.obs, t), nil
}

// height is the elevation above the threshold at t; positive means up.
func (s *search) height(t sattime.Instant) (float64, error) {
	_, la, err := s.look(t)
	if err != nil {
		return 0, err
	}
	return la.ElevationDeg - s.opts.MinElevationDeg, nil
}

func (s *search) run(ctx context.Context, start, end sattime.Instant) ([]PassRecord, error) {
	step := sattime.Instant(sattime.Days(s.opts.CoarseStep))

	h, err := s.height(start)
	if err != nil {
		return nil, err
	}
	state := searching
	if h > 0 {
		state = skipping
	}

	var (
		passes    = []PassRecord{}
		t         = start
		aos, best sattime.Instant
		bestH     float64
	)
	for steps := 0; state == inPass || t < end; steps++ {
		if steps >= s.opts.MaxScanSteps {
			return nil, fmt.Errorf("%w: %d steps of %s", ErrScanBudget, steps, s.opts.CoarseStep)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := t + step
		if state != inPass && next > end {
			next = end
		}
		h, err := s.height(next)
		if err != nil {
			return nil, err
		}

		switch state {
		case skipping:
			if h <= 0 {
				state = searching
			}
		case searching:
			if h > 0 {
				if aos, err = s.crossing(t, next, true); err != nil {
					return nil, err
				}
				best, bestH = next, h
				state = inPass
			}
		case inPass:
			if h > bestH {
				best, bestH = next, h
			}
			if h <= 0 {
				los, err := s.crossing(t, next, false)
				if err != nil {
					return nil, err
				}
				rec, keep, err := s.closePass(aos, best, los, step)
				if err != nil {
					return nil, err
				}
				if keep {
					passes = append(passes, rec)
				}
				state = searching
			}
		}
		t = next
	}
	return passes, nil
}

// closePass refines TCA inside [aos, los] and builds the record. keep is
// false when the pass is filtered out.
func (s *search) closePass(aos, best, los, step sattime.Instant) (rec PassRecord, keep bool, err error) {
	lo, hi := best-step, best+step
	if lo < aos {
		lo = aos
	}
	if hi > los {
		hi = los
	}
	tca, err := s.peak(lo, hi)
	if err != nil {
		return PassRecord{}, false, err
	}

	tcaState, tcaLook, err := s.look(tca)
	if err != nil {
		return PassRecord{}, false, err
	}
	if tcaLook.ElevationDeg < s.opts.MinPeakElevationDeg {
		return PassRecord{}, false, nil
	}

	visCfg := s.opts.Visibility()
	vis := visibility.Classify(tcaState, s.obs, tca, visCfg)
	if s.opts.VisibleOnly && vis != visibility.Visible {
		return PassRecord{}, false, nil
	}

	rec = PassRecord{
		TCA:        event(tca, tcaLook),
		Visibility: vis,
	}
	if mag, ok := magnitude.Estimate(tcaState, s.obs, tca, s.standard); ok {
		rec.Magnitude = &mag
	}
	if rec.AOS, err = s.event(aos); err != nil {
		return PassRecord{}, false, err
	}
	if rec.LOS, err = s.event(los); err != nil {
		return PassRecord{}, false, err
	}
	if err := s.details(&rec, visCfg); err != nil {
		return PassRecord{}, false, err
	}
	return rec, true, nil
}

// details samples the pass every DetailStep plus AOS, TCA and LOS, and
// fills the visible window and, with ExtendedDetails, the path.
func (s *search) details(rec *PassRecord, visCfg visibility.Config) error {
	step := sattime.Instant(sattime.Days(s.opts.DetailStep))
	times := []sattime.Instant{rec.AOS.Time}
	for t := rec.AOS.Time + step; t < rec.LOS.Time; t += step {
		if rec.TCA.Time > times[len(times)-1] && rec.TCA.Time < t {
			times = append(times, rec.TCA.Time)
		}
		times = append(times, t)
	}
	if rec.TCA.Time > times[len(times)-1] {
		times = append(times, rec.TCA.Time)
	}
	times = append(times, rec.LOS.Time)

	if s.opts.ExtendedDetails {
		rec.Path = []PathPoint{}
	}
	for _, t := range times {
		state, la, err := s.look(t)
		if err != nil {
			return err
		}
		if visibility.Classify(state, s.obs, t, visCfg) != visibility.Visible {
			continue
		}

		ev := event(t, la)
		if rec.Visible == nil {
			rec.Visible = &VisibleWindow{Start: ev}
		}
		rec.Visible.End = ev

		if s.opts.ExtendedDetails {
			g := transform.ToGeodetic(state, t)
			rec.Path = append(rec.Path, PathPoint{
				Time:         t,
				LatDeg:       g.LatDeg,
				LonDeg:       g.LonDeg,
				AzimuthDeg:   la.AzimuthDeg,
				ElevationDeg: la.ElevationDeg,
			})
		}
	}
	return nil
}

func (s *search) event(t sattime.Instant) (PassEvent, error) {
	_, la, err := s.look(t)
	if err != nil {
		return PassEvent{}, err
	}
	return event(t, la), nil
}

func event(t sattime.Instant, la transform.LookAngles) PassEvent {
	return PassEvent{Time: t, AzimuthDeg: la.AzimuthDeg, ElevationDeg: la.ElevationDeg}
}
