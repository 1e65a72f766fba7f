package passes

import (
	"math"

	"github.com/star/passpredict/internal/sattime"
)

const (
	maxBisections = 64
	maxGoldenIter = 100
)

// invPhi is 1/φ, the golden-section shrink factor.
var invPhi = (math.Sqrt(5) - 1) / 2

// crossing bisects [lo, hi] for the threshold crossing. For a rise, lo is
// below and hi above, and the returned instant is the earliest known instant
// above. For a set, lo is above and hi below, and it is the latest instant
// above.
func (s *search) crossing(lo, hi sattime.Instant, rising bool) (sattime.Instant, error) {
	tol := sattime.Instant(sattime.Days(s.opts.Tolerance))
	for i := 0; i < maxBisections && hi-lo > tol; i++ {
		mid := lo + (hi-lo)/2
		h, err := s.height(mid)
		if err != nil {
			return 0, err
		}
		if (h > 0) == rising {
			hi = mid
		} else {
			lo = mid
		}
	}
	if rising {
		return hi, nil
	}
	return lo, nil
}

// peak returns the instant of maximum elevation in (lo, hi) by golden-section
// search. The result lies strictly inside the bracket.
func (s *search) peak(lo, hi sattime.Instant) (sattime.Instant, error) {
	tol := sattime.Instant(sattime.Days(s.opts.Tolerance))

	x1 := hi - sattime.Instant(invPhi)*(hi-lo)
	x2 := lo + sattime.Instant(invPhi)*(hi-lo)
	h1, err := s.height(x1)
	if err != nil {
		return 0, err
	}
	h2, err := s.height(x2)
	if err != nil {
		return 0, err
	}

	for i := 0; i < maxGoldenIter && hi-lo > tol; i++ {
		if h1 >= h2 {
			hi, x2, h2 = x2, x1, h1
			x1 = hi - sattime.Instant(invPhi)*(hi-lo)
			if h1, err = s.height(x1); err != nil {
				return 0, err
			}
		} else {
			lo, x1, h1 = x1, x2, h2
			x2 = lo + sattime.Instant(invPhi)*(hi-lo)
			if h2, err = s.height(x2); err != nil {
				return 0, err
			}
		}
	}
	if h1 >= h2 {
		return x1, nil
	}
	return x2, nil
}
