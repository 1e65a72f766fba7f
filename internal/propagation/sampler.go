package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/star/passpredict/internal/metrics"
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/tracing"
)

// Sampler produces evenly spaced sub-satellite points.
type Sampler struct {
	cfg     Config
	pool    *WorkerPool
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSampler creates a sampler. m may be nil.
func NewSampler(cfg Config, logger *slog.Logger, m *metrics.Metrics) *Sampler {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		cfg:     cfg,
		pool:    NewWorkerPool(cfg.Workers, logger),
		logger:  logger,
		metrics: m,
	}
}

// SamplePositions samples el with a default sampler.
func SamplePositions(ctx context.Context, el *tle.ElementSet, start sattime.Instant, count int, step time.Duration) ([]PositionSample, error) {
	return NewSampler(DefaultConfig(), nil, nil).Sample(ctx, el, start, count, step)
}

// Sample returns count positions of el starting at start, step apart.
// A zero count yields an empty slice. The result is either complete or nil.
func (s *Sampler) Sample(ctx context.Context, el *tle.ElementSet, start sattime.Instant, count int, step time.Duration) (samples []PositionSample, err error) {
	if count < 0 || step <= 0 {
		return nil, fmt.Errorf("%w: count %d, step %s", ErrInvalidSampling, count, step)
	}
	if count == 0 {
		return []PositionSample{}, nil
	}

	catalog := 0
	if el != nil {
		catalog = el.NORADID
	}
	ctx, span := tracing.StartSpan(ctx, "propagation.Sample", catalog,
		attribute.Int("count", count),
		attribute.String("step", step.String()),
	)
	defer func() { tracing.EndSpan(span, err) }()

	m, err := NewModel(el, s.cfg)
	if err != nil {
		return nil, err
	}

	times := make([]sattime.Instant, count)
	for i := range times {
		times[i] = start.AddDuration(time.Duration(i) * step)
	}

	began := time.Now()
	samples, err = s.pool.SampleBatch(ctx, m, times)
	duration := time.Since(began)

	s.metrics.RecordSampling(duration, count, err)
	s.metrics.RecordPropagations(m.Kind().String(), count, err)

	s.logger.Debug("sampling complete",
		"norad_id", catalog,
		"model", m.Kind().String(),
		"count", count,
		"duration_ms", duration.Milliseconds(),
		"error", err,
	)
	if err != nil {
		return nil, fmt.Errorf("sample catalog %d: %w", catalog, err)
	}
	return samples, nil
}
