package calendar

import (
	"math"
	"sort"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/scheduler"
	"github.com/meinhoongagan/appointment-sync/utils"
)

// Group is a set of not-yet-synced appointments sharing a time-of-day and
// duration signature, eligible to become one recurring calendar event.
type Group struct {
	Appointments []models.Appointment
	// MinutesOfDay is the group's time-of-day key, rounded to the nearest
	// quarter hour so small manual edits do not split a series.
	MinutesOfDay int
	DurationMin  int
}

// groupKey deliberately excludes the weekday: same-time appointments on
// different weekdays collapse into one group and become a multi-weekday
// series.
type groupKey struct {
	minutesOfDay int
	durationMin  int
}

// GroupRecurring clusters a customer's unsynced appointments into series
// candidates. A candidate only survives as a multi-appointment group when
// every weekday represented in it recurs weekly (at least 70% of that
// weekday's consecutive gaps are exactly 7 days); otherwise its members are
// emitted as single-appointment groups and sync as standalone events. This
// guards against merging unrelated bookings that merely share a start time.
func GroupRecurring(appts []models.Appointment, loc *time.Location) []Group {
	buckets := make(map[groupKey][]models.Appointment)
	for i := range appts {
		local := appts[i].StartTime.In(loc)
		key := groupKey{
			minutesOfDay: utils.RoundToQuarterHour(utils.MinutesOfDay(local)),
			durationMin:  int(math.Round(appts[i].DurationHours * 60)),
		}
		buckets[key] = append(buckets[key], appts[i])
	}

	var out []Group
	for key, members := range buckets {
		sort.Slice(members, func(i, j int) bool {
			return members[i].StartTime.Before(members[j].StartTime)
		})

		if len(members) > 1 && weekdaysRecurWeekly(members, loc) {
			out = append(out, Group{
				Appointments: members,
				MinutesOfDay: key.minutesOfDay,
				DurationMin:  key.durationMin,
			})
			continue
		}

		// Reject the cluster: each member syncs on its own.
		for _, m := range members {
			out = append(out, Group{
				Appointments: []models.Appointment{m},
				MinutesOfDay: key.minutesOfDay,
				DurationMin:  key.durationMin,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Appointments[0].StartTime.Before(out[j].Appointments[0].StartTime)
	})
	return out
}

// weekdaysRecurWeekly applies the weekly cadence heuristic per weekday
// subsequence. Gaps between different weekdays of the same series are 2-3
// days by construction, so the 7-day test only makes sense within one
// weekday's occurrences.
func weekdaysRecurWeekly(members []models.Appointment, loc *time.Location) bool {
	byWeekday := make(map[time.Weekday][]time.Time)
	for i := range members {
		local := members[i].StartTime.In(loc)
		byWeekday[local.Weekday()] = append(byWeekday[local.Weekday()], local)
	}
	for _, times := range byWeekday {
		if len(times) < 2 {
			// A weekday seen once carries no gap evidence; it rides along
			// with the rest of the group.
			continue
		}
		if scheduler.Cadence(times) != scheduler.FrequencyWeekly {
			return false
		}
	}
	return true
}

// IsSeries reports whether the group should sync as a recurring event.
func (g Group) IsSeries() bool {
	return len(g.Appointments) > 1
}

// IDs returns the primary keys of the group's appointments.
func (g Group) IDs() []uint {
	ids := make([]uint, 0, len(g.Appointments))
	for i := range g.Appointments {
		ids = append(ids, g.Appointments[i].ID)
	}
	return ids
}
