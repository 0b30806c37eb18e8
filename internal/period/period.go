// Package period resolves calendar days and months in the store timezone.
package period

import (
	"regexp"
	"time"
)

const monthLayout = "2006-01"

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Month formats t as YYYY-MM in loc.
func Month(t time.Time, loc *time.Location) string {
	return t.In(orUTC(loc)).Format(monthLayout)
}

// ParseMonth accepts YYYY-MM; anything else resolves to the month containing now.
func ParseMonth(raw string, now time.Time, loc *time.Location) string {
	if monthRe.MatchString(raw) {
		return raw
	}
	return Month(now, loc)
}

// IsValidMonth reports whether raw is a well-formed YYYY-MM value.
func IsValidMonth(raw string) bool {
	return monthRe.MatchString(raw)
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	loc = orUTC(loc)
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
