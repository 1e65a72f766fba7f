package passes

import (
	"context"
	"runtime"
	"sync"

	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/transform"
)

// SatellitePasses holds the predicted passes for one satellite.
type SatellitePasses struct {
	NORADID int          `json:"norad_id"`
	Name    string       `json:"name,omitempty"`
	Passes  []PassRecord `json:"passes"`
	Error   string       `json:"error,omitempty"`
}

// Request holds the parameters for a batch pass prediction.
type Request struct {
	Observer    transform.ObserverPosition
	Elements    []*tle.ElementSet
	Start       sattime.Instant
	SpanDays    float64
	MaxPasses   int // per satellite, 0 for no limit
	Concurrency int // default: runtime.NumCPU()
}

// Predict computes passes for every element set of req.
// Each satellite is processed in its own goroutine, bounded by a semaphore.
// Failures are reported per satellite; the result has one entry per input,
// in input order.
func (f *Finder) Predict(ctx context.Context, req Request) []SatellitePasses {
	results := make([]SatellitePasses, len(req.Elements))
	limit := req.Concurrency
	if limit < 1 {
		limit = runtime.NumCPU()
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, el := range req.Elements {
		if el == nil {
			results[i] = SatellitePasses{Error: "missing element set"}
			continue
		}
		wg.Add(1)
		go func(idx int, el *tle.ElementSet) {
			defer wg.Done()
			results[idx] = SatellitePasses{NORADID: el.NORADID, Name: el.Name}

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Error = "cancelled"
				return
			}

			passes, err := f.Find(ctx, el, req.Observer, req.Start, req.SpanDays)
			if err != nil {
				f.logger.Warn("pass prediction failed",
					"norad_id", el.NORADID,
					"error", err,
				)
				results[idx].Error = err.Error()
				return
			}
			if req.MaxPasses > 0 && len(passes) > req.MaxPasses {
				passes = passes[:req.MaxPasses]
			}
			results[idx].Passes = passes
		}(i, el)
	}

	wg.Wait()
	return results
}

// Predict runs a batch with a one-off Finder.
func Predict(ctx context.Context, req Request, opts Options) []SatellitePasses {
	return NewFinder(opts, nil, nil).Predict(ctx, req)
}
