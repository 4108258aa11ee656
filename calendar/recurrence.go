package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/teambition/rrule-go"
)

// Rule is a recurrence descriptor letting one calendar event represent a
// whole series of appointments. It is built per sync run and never stored.
type Rule struct {
	Frequency string // "WEEKLY" or "DAILY"
	Interval  int
	Weekdays  []time.Weekday
	Until     time.Time
}

var bydayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// BuildRule derives the recurrence descriptor for a group of appointments
// that share a time-of-day and duration. The earliest appointment anchors
// the series; the until-date is the earlier of the latest appointment's day
// and a horizon cap of horizonMonths from the anchor.
func BuildRule(appts []models.Appointment, loc *time.Location, horizonMonths int) (Rule, error) {
	if len(appts) == 0 {
		return Rule{}, fmt.Errorf("cannot build recurrence rule from empty group")
	}
	if horizonMonths <= 0 {
		horizonMonths = 3
	}

	earliest := appts[0].StartTime
	latest := appts[0].StartTime
	weekdaySet := make(map[time.Weekday]struct{})
	for i := range appts {
		t := appts[i].StartTime
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
		weekdaySet[t.In(loc).Weekday()] = struct{}{}
	}

	horizon := earliest.AddDate(0, horizonMonths, 0)
	untilDay := latest
	if horizon.Before(untilDay) {
		untilDay = horizon
	}
	y, m, d := untilDay.In(loc).Date()
	until := time.Date(y, m, d, 23, 59, 59, 0, time.UTC)

	weekdays := make([]time.Weekday, 0, len(weekdaySet))
	for wd := range weekdaySet {
		weekdays = append(weekdays, wd)
	}
	sort.Slice(weekdays, func(i, j int) bool { return mondayFirst(weekdays[i]) < mondayFirst(weekdays[j]) })

	return Rule{
		Frequency: "WEEKLY",
		Interval:  1,
		Weekdays:  weekdays,
		Until:     until,
	}, nil
}

// Encode renders the rule in RRULE wire format, e.g.
// "FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20250331T235959Z". INTERVAL is omitted
// when it is 1, the provider default.
func (r Rule) Encode() string {
	parts := []string{"FREQ=" + r.Frequency}
	if r.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", r.Interval))
	}
	if len(r.Weekdays) > 0 {
		codes := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			codes = append(codes, bydayCodes[wd])
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	if !r.Until.IsZero() {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format("20060102T150405Z"))
	}
	return strings.Join(parts, ";")
}

// Occurrences expands the series from its anchor using the rrule engine,
// returning every start instant the rule covers. Used when a whole series
// is updated and the affected local rows have to be enumerated.
func (r Rule) Occurrences(anchor time.Time) ([]time.Time, error) {
	freq := rrule.WEEKLY
	if r.Frequency == "DAILY" {
		freq = rrule.DAILY
	}
	byweekday := make([]rrule.Weekday, 0, len(r.Weekdays))
	for _, wd := range r.Weekdays {
		byweekday = append(byweekday, rruleWeekdays[wd])
	}
	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}

	rr, err := rrule.NewRRule(rrule.ROption{
		Freq:      freq,
		Interval:  interval,
		Byweekday: byweekday,
		Dtstart:   anchor,
		Until:     r.Until,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", r.Encode(), err)
	}
	return rr.All(), nil
}

func mondayFirst(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}
