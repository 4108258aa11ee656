package calendar

import (
	"testing"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
)

func unsynced(start time.Time, durationHours float64) models.Appointment {
	return models.Appointment{
		StartTime:     start,
		DurationHours: durationHours,
		Status:        models.StatusScheduled,
	}
}

// mwfAppointments builds weeks of Mon/Wed/Fri appointments at 14:00/60min,
// starting Monday 2025-01-06.
func mwfAppointments(weeks int) []models.Appointment {
	var out []models.Appointment
	for _, day := range []int{6, 8, 10} {
		first := time.Date(2025, 1, day, 14, 0, 0, 0, time.UTC)
		for w := 0; w < weeks; w++ {
			out = append(out, unsynced(first.AddDate(0, 0, 7*w), 1))
		}
	}
	return out
}

func TestGroupingMinimization(t *testing.T) {
	// Twelve Mon/Wed/Fri appointments over four weeks collapse into exactly
	// one series.
	appts := mwfAppointments(4)
	groups := GroupRecurring(appts, time.UTC)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if len(g.Appointments) != 12 {
		t.Fatalf("group covers %d appointments, want 12", len(g.Appointments))
	}
	if !g.IsSeries() {
		t.Fatal("expected a series group")
	}
}

func TestGroupingAbsorbsJitter(t *testing.T) {
	// 13:58 and 14:05 round to the same quarter-hour key as 14:00.
	appts := []models.Appointment{
		unsynced(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), 1),
		unsynced(time.Date(2025, 1, 13, 13, 58, 0, 0, time.UTC), 1),
		unsynced(time.Date(2025, 1, 20, 14, 5, 0, 0, time.UTC), 1),
	}
	groups := GroupRecurring(appts, time.UTC)
	if len(groups) != 1 {
		t.Fatalf("expected jittered starts to share one group, got %d groups", len(groups))
	}
}

func TestGroupingSplitsOnDuration(t *testing.T) {
	appts := []models.Appointment{
		unsynced(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), 1),
		unsynced(time.Date(2025, 1, 13, 14, 0, 0, 0, time.UTC), 1),
		unsynced(time.Date(2025, 1, 20, 14, 0, 0, 0, time.UTC), 0.5),
	}
	groups := GroupRecurring(appts, time.UTC)
	if len(groups) != 2 {
		t.Fatalf("expected the 30-minute booking in its own group, got %d groups", len(groups))
	}
}

func TestGroupingRejectsNonWeekly(t *testing.T) {
	// Same time-of-day but no weekly cadence: the Monday subsequence has a
	// 21-day gap, so the cluster falls apart into standalone events.
	base := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	appts := []models.Appointment{
		unsynced(base, 1),                   // Mon Jan 6
		unsynced(base.AddDate(0, 0, 21), 1), // Mon Jan 27
		unsynced(base.AddDate(0, 0, 2), 1),  // Wed Jan 8
	}
	groups := GroupRecurring(appts, time.UTC)
	if len(groups) != 3 {
		t.Fatalf("expected 3 standalone groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.IsSeries() {
			t.Fatal("non-weekly cluster must not form a series")
		}
	}
}

func TestGroupingLeavesSinglesAlone(t *testing.T) {
	appts := []models.Appointment{
		unsynced(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), 1),
	}
	groups := GroupRecurring(appts, time.UTC)
	if len(groups) != 1 || groups[0].IsSeries() {
		t.Fatalf("expected one standalone group, got %+v", groups)
	}
}
