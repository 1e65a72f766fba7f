package propagation

import (
	"errors"
	"fmt"

	"github.com/star/passpredict/internal/sattime"
)

// Failure reasons carried by PropagationError.
const (
	ReasonDecayed      = "decayed"
	ReasonKepler       = "kepler did not converge"
	ReasonEccentricity = "eccentricity out of range"
	ReasonSemiLatus    = "semi-latus rectum negative"
	ReasonNonFinite    = "non-finite state"
	ReasonInit         = "invalid elements"
)

// ErrInvalidSampling is returned for a negative sample count or a
// non-positive sample step.
var ErrInvalidSampling = errors.New("invalid sampling request")

// PropagationError reports a state that could not be computed.
type PropagationError struct {
	Catalog   int
	Instant   sattime.Instant
	TsinceMin float64 // minutes from element epoch
	Reason    string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagation failed for catalog %d at %s (%+.1f min from epoch): %s",
		e.Catalog, e.Instant.Time().Format("2006-01-02T15:04:05Z"), e.TsinceMin, e.Reason)
}

// IsDecayed reports whether err is a PropagationError for a decayed orbit.
func IsDecayed(err error) bool {
	var pe *PropagationError
	return errors.As(err, &pe) && pe.Reason == ReasonDecayed
}
