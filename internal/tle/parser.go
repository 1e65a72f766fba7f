package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/star/passpredict/internal/sattime"
)

// LineLength is the fixed width of both element lines, checksum included.
const LineLength = 69

// Parse reads a catalog of element sets from r. Groups are either three
// lines (title, line 1, line 2) or two lines without a title. Malformed
// groups are skipped with a warning log; a nil logger means slog.Default().
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var sets []ElementSet
	for i := 0; i < len(lines); {
		var name, line1, line2 string
		switch {
		case i+1 < len(lines) && isElementLine(lines[i], '1') && isElementLine(lines[i+1], '2'):
			line1, line2 = lines[i], lines[i+1]
			i += 2
		case i+2 < len(lines) && isElementLine(lines[i+1], '1') && isElementLine(lines[i+2], '2'):
			name, line1, line2 = lines[i], lines[i+1], lines[i+2]
			i += 3
		default:
			logger.Warn("skipping malformed TLE entry", "line_index", i, "line", lines[i])
			i++
			continue
		}

		es, err := ParseElements(name, line1, line2)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "name", strings.TrimSpace(name), "error", err)
			continue
		}
		sets = append(sets, *es)
	}

	return sets, nil
}

// ParseLines parses a two- or three-line slice.
func ParseLines(lines []string) (*ElementSet, error) {
	switch len(lines) {
	case 2:
		return ParseElements("", lines[0], lines[1])
	case 3:
		return ParseElements(lines[0], lines[1], lines[2])
	default:
		return nil, &ElementFormatError{Reason: fmt.Sprintf("expected 2 or 3 lines, got %d", len(lines))}
	}
}

// ParseElements parses one element set. Every structural problem, including
// a checksum mismatch, is reported as *ElementFormatError.
func ParseElements(title, line1, line2 string) (*ElementSet, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if err := checkLine(line1, 1); err != nil {
		return nil, err
	}
	if err := checkLine(line2, 2); err != nil {
		return nil, err
	}

	p := fieldParser{}
	es := &ElementSet{
		Name:  cleanTitle(title),
		Line1: line1,
		Line2: line2,
	}

	es.NORADID = p.integer(line1, 1, "catalog_number", 2, 7)
	if cat2 := p.integer(line2, 2, "catalog_number", 2, 7); p.err == nil && cat2 != es.NORADID {
		return nil, formatErr(2, "catalog_number", "catalog number %d does not match line 1 (%d)", cat2, es.NORADID)
	}
	es.Classification = line1[7]
	es.IntlDesignator = strings.TrimSpace(line1[9:17])

	es.EpochYear = p.integer(line1, 1, "epoch_year", 18, 20)
	es.EpochDay = p.number(line1, 1, "epoch_day", 20, 32)
	es.MeanMotionDot = p.number(line1, 1, "mean_motion_dot", 33, 43)
	es.MeanMotionDDot = p.exp(line1, 1, "mean_motion_ddot", 44, 52)
	es.BStar = p.exp(line1, 1, "bstar", 53, 61)
	es.ElementSetNo = p.optionalInt(line1, 1, "element_set_number", 64, 68)

	es.Inclination = p.number(line2, 2, "inclination", 8, 16)
	es.RAAN = p.number(line2, 2, "raan", 17, 25)
	es.Eccentricity = p.decimal(line2, 2, "eccentricity", 26, 33)
	es.ArgPerigee = p.number(line2, 2, "arg_perigee", 34, 42)
	es.MeanAnomaly = p.number(line2, 2, "mean_anomaly", 43, 51)
	es.MeanMotion = p.number(line2, 2, "mean_motion", 52, 63)
	es.RevNumber = p.optionalInt(line2, 2, "rev_number", 63, 68)

	if p.err != nil {
		return nil, p.err
	}

	if es.EpochDay < 1 || es.EpochDay >= 367 {
		return nil, formatErr(1, "epoch_day", "day of year %.8f out of range", es.EpochDay)
	}
	if es.Inclination < 0 || es.Inclination > 180 {
		return nil, formatErr(2, "inclination", "%.4f out of range", es.Inclination)
	}
	if es.MeanMotion <= 0 {
		return nil, formatErr(2, "mean_motion", "must be positive, got %.8f", es.MeanMotion)
	}

	es.EpochTime, es.Epoch = epochOf(es.EpochYear, es.EpochDay)
	return es, nil
}

// Checksum returns the modulo-10 checksum of the first 68 columns of line:
// digits count their value, a minus sign counts one, everything else zero.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < LineLength-1; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func checkLine(line string, n int) error {
	if len(line) != LineLength {
		return formatErr(n, "", "length %d, expected %d", len(line), LineLength)
	}
	if line[0] != byte('0'+n) || line[1] != ' ' {
		return formatErr(n, "line_number", "must start with %q, got %q", fmt.Sprintf("%d ", n), line[:2])
	}
	want := line[LineLength-1]
	if want < '0' || want > '9' {
		return formatErr(n, "checksum", "checksum column is %q, not a digit", want)
	}
	if got := Checksum(line); got != int(want-'0') {
		return formatErr(n, "checksum", "computed %d, line carries %c", got, want)
	}
	return nil
}

func isElementLine(line string, n byte) bool {
	return len(line) >= 2 && line[0] == n && line[1] == ' '
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	// Three-line catalogs in the "0 NAME" style.
	if strings.HasPrefix(title, "0 ") {
		title = strings.TrimSpace(title[2:])
	}
	return title
}

// epochOf converts the YY and DDD.DDDDDDDD epoch fields.
// Year 00-56 → 2000s, 57-99 → 1900s.
func epochOf(yy int, day float64) (time.Time, sattime.Instant) {
	year := yy + 2000
	if yy >= 57 {
		year = yy + 1900
	}
	jan1 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	// day is 1-based: day 1.0 = Jan 1 00:00.
	t := jan1.Add(time.Duration((day - 1) * float64(24*time.Hour)))
	return t, sattime.FromTime(jan1) + sattime.Instant(day-1)
}

// fieldParser extracts fixed-column fields and keeps the first error.
type fieldParser struct {
	err error
}

func (p *fieldParser) fail(line int, field, format string, args ...any) {
	if p.err == nil {
		p.err = formatErr(line, field, format, args...)
	}
}

func (p *fieldParser) integer(s string, line int, field string, from, to int) int {
	raw := strings.TrimSpace(s[from:to])
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(line, field, "invalid integer %q", raw)
		return 0
	}
	return v
}

func (p *fieldParser) optionalInt(s string, line int, field string, from, to int) int {
	if strings.TrimSpace(s[from:to]) == "" {
		return 0
	}
	return p.integer(s, line, field, from, to)
}

func (p *fieldParser) number(s string, line int, field string, from, to int) float64 {
	raw := strings.TrimSpace(s[from:to])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		p.fail(line, field, "invalid number %q", raw)
		return 0
	}
	return v
}

// decimal parses a field with an implied leading decimal point ("0003457").
func (p *fieldParser) decimal(s string, line int, field string, from, to int) float64 {
	raw := strings.TrimSpace(s[from:to])
	if raw == "" || strings.ContainsAny(raw, "+-. ") {
		p.fail(line, field, "invalid implied-decimal value %q", raw)
		return 0
	}
	v, err := strconv.ParseFloat("0."+raw, 64)
	if err != nil {
		p.fail(line, field, "invalid implied-decimal value %q", raw)
		return 0
	}
	return v
}

// exp parses the compact exponent notation " 30099-3" = 0.30099e-3.
func (p *fieldParser) exp(s string, line int, field string, from, to int) float64 {
	raw := strings.TrimSpace(s[from:to])
	if raw == "" {
		return 0
	}
	body := raw
	sign := 1.0
	switch body[0] {
	case '-':
		sign = -1
		body = body[1:]
	case '+':
		body = body[1:]
	}

	mant, expo := body, "0"
	if i := strings.LastIndexAny(body, "+-"); i > 0 {
		mant, expo = body[:i], body[i:]
	}
	m, err := strconv.ParseFloat("0."+strings.TrimSpace(mant), 64)
	if err != nil {
		p.fail(line, field, "invalid mantissa in %q", raw)
		return 0
	}
	e, err := strconv.Atoi(expo)
	if err != nil {
		p.fail(line, field, "invalid exponent in %q", raw)
		return 0
	}
	return sign * m * math.Pow10(e)
}
