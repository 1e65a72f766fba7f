package tle

import "fmt"

// ElementFormatError reports element text that does not follow the two-line
// layout or fails its checksum.
type ElementFormatError struct {
	Line   int    // 0 = title, 1 or 2 = element lines
	Field  string // offending field, empty for whole-line problems
	Reason string
}

func (e *ElementFormatError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tle line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("tle line %d field %s: %s", e.Line, e.Field, e.Reason)
}

func formatErr(line int, field, format string, args ...any) *ElementFormatError {
	return &ElementFormatError{Line: line, Field: field, Reason: fmt.Sprintf(format, args...)}
}
