package store

import (
	"strconv"
	"strings"
	"time"
)

// Master registry and history files carry dates as DD-MM-YYYY; history rows
// carry timestamps at second precision.
const (
	dateLayout      = "02-01-2006"
	timestampLayout = "2006-01-02T15:04:05"
)

// parseCount coerces a hand-edited count field to a non-negative integer.
// Anything malformed (or negative) becomes 0 rather than failing the load.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	// Spreadsheet exports sometimes render integers as "20000.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return int(f)
	}
	return 0
}

// parseDate parses a DD-MM-YYYY field. Unparsable values are treated as
// absent, not as errors.
func parseDate(s string) *time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

// formatDate renders a nullable date back to DD-MM-YYYY, empty when absent.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
