package utils

import (
	"fmt"
	"time"
)

// ParseHHMM parses a "HH:MM" 24h clock string into hour and minute.
func ParseHHMM(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// AtTime places a time-of-day onto a calendar day in the given location.
func AtTime(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// MinutesOfDay returns the minute offset of t within its day.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// RoundToQuarterHour rounds a minute-of-day offset to the nearest 15 minutes.
// 23:53 and later round up past the end of the day and wrap to 00:00, which
// keeps the result a valid offset while still absorbing edit jitter.
func RoundToQuarterHour(minutes int) int {
	rounded := ((minutes + 7) / 15) * 15
	return rounded % (24 * 60)
}

// DaysBetween returns the whole-day difference between two instants,
// comparing calendar days rather than elapsed 24h periods so DST shifts do
// not produce off-by-one gaps.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// ISOWeek returns a comparable year*100+week key for distinct-week counting.
func ISOWeek(t time.Time) int {
	y, w := t.ISOWeek()
	return y*100 + w
}
