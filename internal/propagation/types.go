package propagation

import (
	"runtime"

	"github.com/star/passpredict/internal/sattime"
)

// Config holds propagation settings.
type Config struct {
	Workers             int // sampler worker pool size (default: runtime.NumCPU())
	MaxKeplerIterations int // Newton iterations allowed per Kepler solve (default: 10)
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Workers:             runtime.NumCPU(),
		MaxKeplerIterations: 10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.MaxKeplerIterations < 1 {
		c.MaxKeplerIterations = d.MaxKeplerIterations
	}
	return c
}

// Kind selects the perturbation branch of a Model.
type Kind int

const (
	// NearEarth is the SGP4 branch for periods under 225 minutes.
	NearEarth Kind = iota
	// DeepSpace is the SDP4 branch with lunar-solar and resonance terms.
	DeepSpace
)

func (k Kind) String() string {
	switch k {
	case NearEarth:
		return "near_earth"
	case DeepSpace:
		return "deep_space"
	default:
		return "unknown"
	}
}

// PositionSample is one sub-satellite point produced by the sampler.
type PositionSample struct {
	Time      sattime.Instant
	Latitude  float64 // degrees
	Longitude float64 // degrees, -180..180
	Speed     float64 // inertial speed, km/s
	Altitude  float64 // km above the WGS-84 ellipsoid
}
