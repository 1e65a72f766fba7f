package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/passpredict/internal/predictor"
	"github.com/star/passpredict/internal/tle"
)

func newPassesCmd(a *app) *cobra.Command {
	var (
		lat, lng, alt float64
		days          float64
		startFlag     string
		all, extended bool
	)
	cmd := &cobra.Command{
		Use:   "passes [norad-id...]",
		Short: "List passes over an observer",
		Long: `List the passes of the selected satellites over an observer.

With no NORAD IDs every satellite of the catalog is searched. By default only
passes visible to the naked eye are reported; --all includes daylight and
eclipsed passes.`,
		Example: `  passpredict passes 25544 --catalog visual.txt --lat 40.71 --lng -74.01
  passpredict passes --catalog visual.txt --days 2 --all --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			loc := s.Observer
			flags := cmd.Flags()
			if flags.Changed("lat") {
				loc.Lat = lat
			}
			if flags.Changed("lng") {
				loc.Lng = lng
			}
			if flags.Changed("alt") {
				loc.Alt = alt
			}

			var req predictor.PassRequest
			if flags.Changed("days") {
				req.TimespanDays = &days
			}
			if flags.Changed("all") {
				visibleOnly := !all
				req.VisibleOnly = &visibleOnly
			}
			if flags.Changed("extended") {
				req.ExtendedDetails = &extended
			}

			start, err := parseStart(startFlag)
			if err != nil {
				return err
			}
			els, err := a.selectElements(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if len(els) == 1 {
				report, err := a.predictor.GetPasses(ctx, els[0], loc, start, req)
				if err != nil {
					return err
				}
				return renderPasses(cmd.OutOrStdout(), s.Format, []predictor.PassReport{*report})
			}
			reports, err := a.predictor.GetPassesBatch(ctx, els, loc, start, req, s.Concurrency)
			if err != nil {
				return err
			}
			for _, r := range reports {
				if r.Error != "" {
					a.logger.Warn("pass search failed", "norad_id", r.NORADID, "error", r.Error)
				}
			}
			return renderPasses(cmd.OutOrStdout(), s.Format, reports)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&lat, "lat", 0, "observer latitude, degrees north")
	f.Float64Var(&lng, "lng", 0, "observer longitude, degrees east")
	f.Float64Var(&alt, "alt", 0, "observer altitude, metres")
	f.Float64Var(&days, "days", 0, "search span in days")
	f.StringVar(&startFlag, "start", "", "search start, RFC 3339 (default now)")
	f.BoolVar(&all, "all", false, "include passes that are not visible")
	f.BoolVar(&extended, "extended", false, "include the visible path of each pass")
	return cmd
}

func newPositionsCmd(a *app) *cobra.Command {
	var (
		minutes    int
		resolution time.Duration
		startFlag  string
	)
	cmd := &cobra.Command{
		Use:     "positions norad-id",
		Short:   "List sub-satellite points",
		Example: `  passpredict positions 25544 --catalog visual.txt --mins 90 --resolution 30s`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req predictor.PositionRequest
			if cmd.Flags().Changed("mins") {
				req.Minutes = &minutes
			}
			req.Resolution = resolution

			start, err := parseStart(startFlag)
			if err != nil {
				return err
			}
			els, err := a.selectElements(args)
			if err != nil {
				return err
			}
			records, err := a.predictor.GetPositions(cmd.Context(), els[0], start, req)
			if err != nil {
				return err
			}
			return renderPositions(cmd.OutOrStdout(), a.settings.Format, records)
		},
	}

	f := cmd.Flags()
	f.IntVar(&minutes, "mins", 0, "span in minutes")
	f.DurationVar(&resolution, "resolution", 0, "spacing between positions (default 1m)")
	f.StringVar(&startFlag, "start", "", "first position, RFC 3339 (default now)")
	return cmd
}

func parseStart(v string) (time.Time, error) {
	if v == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("start %q: %w", v, err)
	}
	return t, nil
}

// selectElements loads the catalog and picks the requested NORAD IDs in
// argument order. No IDs selects the whole catalog.
func (a *app) selectElements(ids []string) ([]*tle.ElementSet, error) {
	var r io.Reader = os.Stdin
	if a.settings.Catalog != "-" {
		f, err := os.Open(a.settings.Catalog)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		r = f
	}

	sets, err := tle.Parse(r, a.logger)
	if err != nil {
		return nil, err
	}
	a.logger.Info("catalog loaded",
		"path", a.settings.Catalog,
		"count", len(sets),
	)
	return pick(sets, ids)
}

func pick(sets []tle.ElementSet, ids []string) ([]*tle.ElementSet, error) {
	byID := make(map[int]*tle.ElementSet, len(sets))
	for i := range sets {
		byID[sets[i].NORADID] = &sets[i]
	}

	if len(ids) == 0 {
		if len(sets) == 0 {
			return nil, fmt.Errorf("catalog is empty")
		}
		out := make([]*tle.ElementSet, len(sets))
		for i := range sets {
			out[i] = &sets[i]
		}
		return out, nil
	}

	out := make([]*tle.ElementSet, 0, len(ids))
	for _, v := range ids {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("bad NORAD ID %q", v)
		}
		el, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("NORAD ID %d not in catalog", id)
		}
		out = append(out, el)
	}
	return out, nil
}
