package propagation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/transform"
)

// sampleJob asks for the sample at position index of the time list.
type sampleJob struct {
	index int
	at    sattime.Instant
}

// sampleResult carries either a sample or the propagation failure.
type sampleResult struct {
	index  int
	sample PositionSample
	err    error
}

// WorkerPool evaluates a model over many instants on a bounded set of
// goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool returns a pool of workers goroutines, at least one.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// SampleBatch evaluates m at every instant of times using the worker pool.
// Samples come back in input order. If any evaluation fails, no samples are
// returned and the error is the one of the lowest failing index. Feeding stops
// at the first failure or when ctx is done.
func (wp *WorkerPool) SampleBatch(ctx context.Context, m *Model, times []sattime.Instant) ([]PositionSample, error) {
	if len(times) == 0 {
		return []PositionSample{}, nil
	}

	jobs := make(chan sampleJob, wp.workers*2)
	results := make(chan sampleResult, wp.workers*2)
	stop := make(chan struct{})
	var stopOnce sync.Once

	// The collector below drains every result, so workers never block.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- sampleOne(m, job)
			}
		}()
	}

	// Feed jobs in index order so every index below a failure is evaluated.
	go func() {
		defer close(jobs)
		for i, at := range times {
			select {
			case jobs <- sampleJob{index: i, at: at}:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	samples := make([]PositionSample, len(times))
	var (
		firstErr error
		errIndex = len(times)
		received int
	)
	for result := range results {
		if result.err != nil {
			stopOnce.Do(func() { close(stop) })
			if result.index < errIndex {
				errIndex, firstErr = result.index, result.err
			}
			continue
		}
		samples[result.index] = result.sample
		received++
	}

	if firstErr != nil {
		wp.logger.Debug("sampling aborted",
			"norad_id", m.Catalog(),
			"index", errIndex,
			"error", firstErr,
		)
		return nil, firstErr
	}
	if received < len(times) {
		return nil, ctx.Err()
	}
	return samples, nil
}

// sampleOne propagates the model and projects the state onto the ellipsoid.
func sampleOne(m *Model, job sampleJob) sampleResult {
	state, err := m.Propagate(job.at)
	if err != nil {
		return sampleResult{index: job.index, err: err}
	}

	g := transform.ToGeodetic(state, job.at)
	return sampleResult{
		index: job.index,
		sample: PositionSample{
			Time:      job.at,
			Latitude:  g.LatDeg,
			Longitude: g.LonDeg,
			Speed:     state.Velocity().Norm(),
			Altitude:  g.AltM / 1000.0,
		},
	}
}
