package calendar

import (
	"testing"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
)

func TestEncodeRequiredFormat(t *testing.T) {
	// Mon/Wed/Fri 14:00 series anchored Monday 2025-01-06 whose last
	// appointment falls on Monday 2025-03-31.
	appts := mwfAppointments(12)
	appts = append(appts, unsynced(time.Date(2025, 3, 31, 14, 0, 0, 0, time.UTC), 1))

	rule, err := BuildRule(appts, time.UTC, 3)
	if err != nil {
		t.Fatalf("BuildRule: %v", err)
	}
	want := "FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20250331T235959Z"
	if got := rule.Encode(); got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestHorizonCapsUntil(t *testing.T) {
	// Appointments stretch five months out; the until-date stops at the
	// three-month horizon from the anchor.
	appts := []models.Appointment{
		unsynced(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC), 1),
		unsynced(time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC), 1),
	}
	rule, err := BuildRule(appts, time.UTC, 3)
	if err != nil {
		t.Fatalf("BuildRule: %v", err)
	}
	wantUntil := time.Date(2025, 4, 6, 23, 59, 59, 0, time.UTC)
	if !rule.Until.Equal(wantUntil) {
		t.Fatalf("Until = %s, want horizon cap %s", rule.Until, wantUntil)
	}
}

func TestUntilUsesLatestAppointmentWhenEarlier(t *testing.T) {
	appts := mwfAppointments(4) // latest is Friday 2025-01-31
	rule, err := BuildRule(appts, time.UTC, 3)
	if err != nil {
		t.Fatalf("BuildRule: %v", err)
	}
	wantUntil := time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC)
	if !rule.Until.Equal(wantUntil) {
		t.Fatalf("Until = %s, want latest appointment day %s", rule.Until, wantUntil)
	}
}

func TestEncodeInterval(t *testing.T) {
	rule := Rule{
		Frequency: "WEEKLY",
		Interval:  2,
		Weekdays:  []time.Weekday{time.Tuesday},
		Until:     time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC),
	}
	want := "FREQ=WEEKLY;INTERVAL=2;BYDAY=TU;UNTIL=20250331T235959Z"
	if got := rule.Encode(); got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestOccurrencesCoverGroup(t *testing.T) {
	appts := mwfAppointments(2) // 6 appointments over two weeks
	rule, err := BuildRule(appts, time.UTC, 3)
	if err != nil {
		t.Fatalf("BuildRule: %v", err)
	}

	anchor := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	occurrences, err := rule.Occurrences(anchor)
	if err != nil {
		t.Fatalf("Occurrences: %v", err)
	}
	if len(occurrences) != 6 {
		t.Fatalf("rule expands to %d occurrences, want 6", len(occurrences))
	}

	covered := make(map[time.Time]bool)
	for _, o := range occurrences {
		covered[o.UTC()] = true
	}
	for _, a := range appts {
		if !covered[a.StartTime.UTC()] {
			t.Fatalf("appointment at %s not covered by rule %s", a.StartTime, rule.Encode())
		}
	}
}

func TestBuildRuleEmptyGroup(t *testing.T) {
	if _, err := BuildRule(nil, time.UTC, 3); err == nil {
		t.Fatal("expected an error for an empty group")
	}
}
