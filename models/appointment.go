package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ValidStatus reports whether s belongs to the closed status set.
func ValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	gorm.Model
	CustomerID      uint              `json:"customer_id" gorm:"index:idx_customer_start"`
	Customer        Customer          `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	StartTime       time.Time         `json:"start_time" gorm:"index:idx_customer_start"`
	DurationHours   float64           `json:"duration_hours"`
	Status          AppointmentStatus `json:"status"`
	CalendarEventID *string           `json:"calendar_event_id,omitempty" gorm:"index"`
	IsRecurringSync bool              `json:"is_recurring_sync"`
	Notes           string            `json:"notes"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if !ValidStatus(a.Status) {
		return fmt.Errorf("invalid appointment status: %s", a.Status)
	}
	if a.DurationHours <= 0 {
		return fmt.Errorf("appointment duration must be positive, got %v", a.DurationHours)
	}
	// Conflict range queries pre-filter on start_time assuming no interval
	// spans more than a day.
	if a.DurationHours > 24 {
		return fmt.Errorf("appointment duration cannot exceed 24 hours, got %v", a.DurationHours)
	}
	return nil
}

// Duration returns the appointment length as a time.Duration.
func (a *Appointment) Duration() time.Duration {
	return time.Duration(a.DurationHours * float64(time.Hour))
}

// EndTime returns the exclusive end of the appointment interval.
// Appointments occupy the half-open interval [StartTime, EndTime).
func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(a.Duration())
}

// IsSynced reports whether the appointment is already represented upstream.
// The calendar event ID is written only after a confirmed calendar write, so
// its presence is the single source of truth for "synced".
func (a *Appointment) IsSynced() bool {
	return a.CalendarEventID != nil && *a.CalendarEventID != ""
}

// UpdateStatus applies a validated status transition and saves the row.
func (a *Appointment) UpdateStatus(tx *gorm.DB, newStatus AppointmentStatus) error {
	if !ValidStatus(newStatus) {
		return fmt.Errorf("invalid appointment status: %s", newStatus)
	}
	switch a.Status {
	case StatusScheduled:
		// Every terminal state is reachable from scheduled.
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return fmt.Errorf("no transitions allowed from %s", a.Status)
	}

	a.Status = newStatus
	if err := tx.Save(a).Error; err != nil {
		return err
	}
	return nil
}
