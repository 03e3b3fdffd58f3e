// Package cycles estimates equivalent usage cycles from elapsed calendar time.
//
// The plant runs a fixed number of cycles per working day; one weekday per
// week is a rest day and accrues nothing. Cycle counts are derived purely
// from dates, never from live machine counters.
package cycles

import "time"

// Calculator converts a last-changed date into an accrued cycle count.
type Calculator struct {
	RatePerDay int          // cycles accrued per working day
	RestDay    time.Weekday // weekday that accrues nothing
}

// Default matches the plant's standing assumptions: 1800 cycles per working
// day, Sundays off.
var Default = Calculator{RatePerDay: 1800, RestDay: time.Sunday}

// WorkingCycles returns the cycles accrued over the working days in
// [changed, asOf). A nil changed date, or one on/after asOf, yields 0.
func (c Calculator) WorkingCycles(changed *time.Time, asOf time.Time) int {
	if changed == nil {
		return 0
	}
	start := midnightUTC(*changed)
	end := midnightUTC(asOf)
	days := int(end.Sub(start) / (24 * time.Hour))
	if days <= 0 {
		return 0
	}
	return (days - restDays(start.Weekday(), days, c.RestDay)) * c.RatePerDay
}

// restDays counts occurrences of rest within the span of n consecutive days
// beginning on weekday first. Closed form so multi-year spans stay O(1).
func restDays(first time.Weekday, n int, rest time.Weekday) int {
	offset := (int(rest) - int(first) + 7) % 7
	if offset >= n {
		return 0
	}
	return (n-offset-1)/7 + 1
}

// midnightUTC truncates a timestamp to its calendar day. Normalizing to UTC
// keeps day arithmetic clear of DST wobble regardless of the input location.
func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
