// Command diag compares the propagator against go-satellite for every
// element set of a catalog and prints the position and velocity residuals.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joshuaferrara/go-satellite"
	"github.com/spf13/cobra"

	"github.com/star/passpredict/internal/propagation"
	"github.com/star/passpredict/internal/sattime"
	"github.com/star/passpredict/internal/tle"
	"github.com/star/passpredict/internal/transform"
)

// offsets are the sample times after epoch, in minutes.
var offsets = []float64{0, 90, 360, 720, 1440, 4320}

type residual struct {
	offset float64
	dr, dv float64 // km, km/s
	err    error
}

func main() {
	var limit int
	cmd := &cobra.Command{
		Use:           "diag catalog.txt",
		Short:         "Report propagation residuals against go-satellite",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "compare at most this many element sets")

	if err := cmd.Execute(); err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}

func run(path string, limit int) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sets, err := tle.Parse(f, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d element sets\n", len(sets))
	if limit > 0 && len(sets) > limit {
		sets = sets[:limit]
	}

	worst := 0.0
	failures := 0
	for i := range sets {
		el := &sets[i]
		res, kind, err := compare(el)
		if err != nil {
			fmt.Printf("  NORAD %d: ERROR %s\n", el.NORADID, err)
			failures++
			continue
		}
		fmt.Printf("  NORAD %d %s (%s)\n", el.NORADID, el.Name, kind)
		for _, r := range res {
			if r.err != nil {
				fmt.Printf("    +%6.0f min: %s\n", r.offset, r.err)
				continue
			}
			fmt.Printf("    +%6.0f min: dr=%9.4f km  dv=%9.6f km/s\n", r.offset, r.dr, r.dv)
			if r.dr > worst {
				worst = r.dr
			}
		}
	}
	fmt.Printf("\nWorst position residual: %.4f km, %d element sets failed\n", worst, failures)
	return nil
}

func compare(el *tle.ElementSet) ([]residual, propagation.Kind, error) {
	m, err := propagation.NewModel(el, propagation.DefaultConfig())
	if err != nil {
		return nil, 0, err
	}
	ref := satellite.TLEToSat(el.Line1, el.Line2, satellite.GravityWGS72)

	// go-satellite truncates its epoch to whole seconds and is evaluated at
	// whole seconds, so both sides are compared at the same time since epoch.
	epoch := el.EpochTime.Truncate(time.Second)
	lag := el.EpochTime.Sub(epoch)

	res := make([]residual, 0, len(offsets))
	for _, off := range offsets {
		at := epoch.Add(time.Duration(off * float64(time.Minute))).Truncate(time.Second)
		r := residual{offset: off}

		t := sattime.FromTime(at.Add(lag))
		state, err := m.Propagate(t)
		if err == nil && !transform.ValidateECEF(transform.TEMEToECEF(state, t)) {
			err = fmt.Errorf("implausible position %.1f km from the geocentre", state.Position().Norm())
		}
		if err != nil {
			r.err = err
			res = append(res, r)
			continue
		}
		pos, vel := satellite.Propagate(ref,
			at.Year(), int(at.Month()), at.Day(),
			at.Hour(), at.Minute(), at.Second())

		r.dr = state.Position().Sub(transform.Vector{X: pos.X, Y: pos.Y, Z: pos.Z}).Norm()
		r.dv = state.Velocity().Sub(transform.Vector{X: vel.X, Y: vel.Y, Z: vel.Z}).Norm()
		res = append(res, r)
	}
	return res, m.Kind(), nil
}
