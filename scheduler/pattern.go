package scheduler

import (
	"math"
	"sort"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/utils"
)

type Frequency string

const (
	FrequencyWeekly Frequency = "WEEKLY"
	FrequencyDaily  Frequency = "DAILY"
	FrequencyNone   Frequency = ""
)

// Pattern is a recurring slot inferred from a customer's history. It is
// recomputed on every run and never persisted.
type Pattern struct {
	Weekdays      []time.Weekday
	Hour          int
	Minute        int
	DurationHours float64
	Frequency     Frequency
	Occurrences   int
}

// slotKey identifies an exact recurring slot. Duration is held in whole
// minutes so the key has structural equality.
type slotKey struct {
	weekday     time.Weekday
	hour        int
	minute      int
	durationMin int
}

// timeKey is slotKey without the weekday, used when merging weekday groups
// that share a time-of-day and duration.
type timeKey struct {
	hour        int
	minute      int
	durationMin int
}

const (
	// minSlotWeeks is how many distinct weeks a slot must appear in before
	// it counts as recurring rather than a one-off booking.
	minSlotWeeks = 3

	// weeklyGapShare and dailyGapShare are the fraction of consecutive
	// day-gaps that must hit exactly 7 (resp. 1) days for a cadence call.
	weeklyGapShare = 0.7
	dailyGapShare  = 0.8
)

func durationMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}

// Cadence classifies the spacing of a chronological sequence. At least two
// instants (one gap) are required; otherwise no cadence is assigned.
func Cadence(times []time.Time) Frequency {
	if len(times) < 2 {
		return FrequencyNone
	}
	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	weekly, daily := 0, 0
	total := len(sorted) - 1
	for i := 1; i < len(sorted); i++ {
		switch utils.DaysBetween(sorted[i-1], sorted[i]) {
		case 7:
			weekly++
		case 1:
			daily++
		}
	}
	if float64(weekly)/float64(total) >= weeklyGapShare {
		return FrequencyWeekly
	}
	if float64(daily)/float64(total) >= dailyGapShare {
		return FrequencyDaily
	}
	return FrequencyNone
}

// DetectPatterns infers recurring slots from a customer's appointment
// history. The caller supplies rows from a bounded lookback window; rows
// that were cancelled or no-shows are ignored here.
//
// Weekly detection runs per exact slot (weekday + time + duration) and
// weekday groups sharing a time and duration merge into one multi-weekday
// pattern. Whole-sequence daily detection only runs when no weekly pattern
// was found, so a Mon/Wed/Fri history is reported as weekly rather than as
// a ragged daily cadence.
func DetectPatterns(history []models.Appointment, loc *time.Location) []Pattern {
	qualifying := make([]models.Appointment, 0, len(history))
	for i := range history {
		a := history[i]
		if a.Status == models.StatusCancelled || a.Status == models.StatusNoShow {
			continue
		}
		qualifying = append(qualifying, a)
	}
	if len(qualifying) < 2 {
		return nil
	}

	// Group by exact slot.
	slots := make(map[slotKey][]time.Time)
	for i := range qualifying {
		local := qualifying[i].StartTime.In(loc)
		key := slotKey{
			weekday:     local.Weekday(),
			hour:        local.Hour(),
			minute:      local.Minute(),
			durationMin: durationMinutes(qualifying[i].DurationHours),
		}
		slots[key] = append(slots[key], local)
	}

	// A slot is a candidate only if it appears in enough distinct weeks,
	// and it must independently pass the weekly cadence test.
	weeklySlots := make(map[slotKey][]time.Time)
	for key, times := range slots {
		weeks := make(map[int]struct{})
		for _, t := range times {
			weeks[utils.ISOWeek(t)] = struct{}{}
		}
		if len(weeks) < minSlotWeeks {
			continue
		}
		if Cadence(times) == FrequencyWeekly {
			weeklySlots[key] = times
		}
	}

	if len(weeklySlots) > 0 {
		return mergeWeekly(weeklySlots)
	}

	// No weekly slot: fall back to classifying the whole sequence.
	all := make([]time.Time, 0, len(qualifying))
	for i := range qualifying {
		all = append(all, qualifying[i].StartTime.In(loc))
	}
	if Cadence(all) != FrequencyDaily {
		return nil
	}
	return []Pattern{dailyPattern(qualifying, loc)}
}

// mergeWeekly collapses weekly slots that share a time-of-day and duration
// into multi-weekday patterns (e.g. Mon+Wed+Fri at 14:00/60min).
func mergeWeekly(weeklySlots map[slotKey][]time.Time) []Pattern {
	merged := make(map[timeKey]*Pattern)
	for key, times := range weeklySlots {
		tk := timeKey{hour: key.hour, minute: key.minute, durationMin: key.durationMin}
		p, ok := merged[tk]
		if !ok {
			p = &Pattern{
				Hour:          key.hour,
				Minute:        key.minute,
				DurationHours: float64(key.durationMin) / 60,
				Frequency:     FrequencyWeekly,
			}
			merged[tk] = p
		}
		p.Weekdays = append(p.Weekdays, key.weekday)
		p.Occurrences += len(times)
	}

	out := make([]Pattern, 0, len(merged))
	for _, p := range merged {
		sortWeekdays(p.Weekdays)
		out = append(out, *p)
	}
	// Deterministic order for reports and tests.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		if out[i].Minute != out[j].Minute {
			return out[i].Minute < out[j].Minute
		}
		return out[i].DurationHours < out[j].DurationHours
	})
	return out
}

// dailyPattern builds the DAILY descriptor for a sequence already classified
// as daily, using the modal time-of-day and duration.
func dailyPattern(appts []models.Appointment, loc *time.Location) Pattern {
	counts := make(map[timeKey]int)
	weekdaySet := make(map[time.Weekday]struct{})
	for i := range appts {
		local := appts[i].StartTime.In(loc)
		tk := timeKey{
			hour:        local.Hour(),
			minute:      local.Minute(),
			durationMin: durationMinutes(appts[i].DurationHours),
		}
		counts[tk]++
		weekdaySet[local.Weekday()] = struct{}{}
	}

	var best timeKey
	bestCount := -1
	for tk, n := range counts {
		if n > bestCount {
			best, bestCount = tk, n
		}
	}

	weekdays := make([]time.Weekday, 0, len(weekdaySet))
	for wd := range weekdaySet {
		weekdays = append(weekdays, wd)
	}
	sortWeekdays(weekdays)

	return Pattern{
		Weekdays:      weekdays,
		Hour:          best.hour,
		Minute:        best.minute,
		DurationHours: float64(best.durationMin) / 60,
		Frequency:     FrequencyDaily,
		Occurrences:   len(appts),
	}
}

// sortWeekdays orders a weekday set Monday-first, matching how series are
// presented to the calendar service.
func sortWeekdays(wds []time.Weekday) {
	mondayFirst := func(wd time.Weekday) int {
		// Sunday is 0 in time.Weekday; push it to the end.
		if wd == time.Sunday {
			return 7
		}
		return int(wd)
	}
	sort.Slice(wds, func(i, j int) bool { return mondayFirst(wds[i]) < mondayFirst(wds[j]) })
}
