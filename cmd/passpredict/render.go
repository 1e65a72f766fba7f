package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/star/passpredict/internal/predictor"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderPasses(w io.Writer, format string, reports []predictor.PassReport) error {
	switch format {
	case "json":
		if len(reports) == 1 {
			return writeJSON(w, reports[0])
		}
		return writeJSON(w, reports)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	for _, r := range reports {
		title := fmt.Sprintf("%s (%d)", r.Name, r.NORADID)
		fmt.Fprintln(w, titleStyle.Render(title))
		switch {
		case r.Error != "":
			fmt.Fprintln(w, errorStyle.Render(r.Error))
		case len(r.Passes) == 0:
			fmt.Fprintln(w, dimStyle.Render("no passes"))
		default:
			fmt.Fprintln(w, passTable(r.Passes))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func passTable(passes []predictor.PassSummary) string {
	t := newTable("Rise (UTC)", "Az", "Max (UTC)", "Az", "El", "Set (UTC)", "Az", "Mag", "Visibility")
	for _, p := range passes {
		t.Row(
			clock(p.AOSTime), degrees(p.AOSAz),
			clock(p.TCATime), degrees(p.TCAAz), degrees(p.TCAEl),
			clock(p.LOSTime), degrees(p.LOSAz),
			mag(p.Magnitude), p.Visibility,
		)
	}
	return t.String()
}

func renderPositions(w io.Writer, format string, records []predictor.PositionRecord) error {
	switch format {
	case "json":
		return writeJSON(w, records)
	case "table":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	t := newTable("Time (UTC)", "Lat", "Lng", "Alt km", "Vel km/s")
	for _, r := range records {
		t.Row(
			clock(r.Time),
			strconv.FormatFloat(r.Lat, 'f', 3, 64),
			strconv.FormatFloat(r.Lng, 'f', 3, 64),
			strconv.FormatFloat(r.Alt, 'f', 1, 64),
			strconv.FormatFloat(r.Vel, 'f', 3, 64),
		)
	}
	fmt.Fprintln(w, t.String())
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func clock(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05")
}

func degrees(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "°"
}

func mag(m *float64) string {
	if m == nil {
		return "-"
	}
	return strconv.FormatFloat(*m, 'f', 1, 64)
}
