// Package metrics holds the Prometheus collectors for propagation, pass
// search and sampling work. A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors registered by New.
type Metrics struct {
	gatherer prometheus.Gatherer

	Propagations   *prometheus.CounterVec
	PassSearches   *prometheus.CounterVec
	PassesFound    prometheus.Counter
	SearchDuration prometheus.Histogram
	Samples        *prometheus.CounterVec
	SampleDuration prometheus.Histogram
}

// New registers the collectors against reg, defaulting to the global
// registry when reg is nil. Collectors already present in reg are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	propagations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passpredict_propagations_total",
		Help: "Orbit propagations, labeled by model branch and result.",
	}, []string{"model", "result"}), "passpredict_propagations_total")
	if err != nil {
		return nil, err
	}

	searches, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passpredict_pass_searches_total",
		Help: "Pass searches, labeled by result.",
	}, []string{"result"}), "passpredict_pass_searches_total")
	if err != nil {
		return nil, err
	}

	found, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passpredict_passes_found_total",
		Help: "Passes returned by successful searches.",
	}), "passpredict_passes_found_total")
	if err != nil {
		return nil, err
	}

	searchDur, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "passpredict_pass_search_duration_seconds",
		Help:    "Wall time of one pass search.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}), "passpredict_pass_search_duration_seconds")
	if err != nil {
		return nil, err
	}

	samples, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passpredict_samples_total",
		Help: "Position samples requested, labeled by result.",
	}, []string{"result"}), "passpredict_samples_total")
	if err != nil {
		return nil, err
	}

	sampleDur, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "passpredict_sample_duration_seconds",
		Help:    "Wall time of one position sampling request.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}), "passpredict_sample_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:       gatherer,
		Propagations:   propagations,
		PassSearches:   searches,
		PassesFound:    found,
		SearchDuration: searchDur,
		Samples:        samples,
		SampleDuration: sampleDur,
	}, nil
}

// RecordPropagations counts n propagations of the given model branch.
func (m *Metrics) RecordPropagations(model string, n int, err error) {
	if m == nil || n <= 0 {
		return
	}
	m.Propagations.WithLabelValues(model, Result(err)).Add(float64(n))
}

// RecordPassSearch records one pass search.
func (m *Metrics) RecordPassSearch(d time.Duration, found int, err error) {
	if m == nil {
		return
	}
	m.PassSearches.WithLabelValues(Result(err)).Inc()
	m.SearchDuration.Observe(d.Seconds())
	if err == nil {
		m.PassesFound.Add(float64(found))
	}
}

// RecordSampling records one sampling request of count positions.
func (m *Metrics) RecordSampling(d time.Duration, count int, err error) {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues(Result(err)).Add(float64(count))
	m.SampleDuration.Observe(d.Seconds())
}

// Gatherer returns the gatherer paired with the registerer given to New.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil || m.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return m.gatherer
}

// WriteTextfile writes all gathered metrics to path in the text exposition
// format read by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Gatherer()); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Result maps an error to the result label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
