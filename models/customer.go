package models

import (
	"time"
)

type Customer struct {
	ID           uint               `json:"id" gorm:"primaryKey"`
	Name         string             `json:"name"`
	Email        string             `json:"email" gorm:"unique"`
	Active       bool               `json:"active"`
	Timezone     string             `json:"timezone"` // IANA name, e.g. "America/New_York"
	Schedules    []CustomerSchedule `json:"schedules,omitempty" gorm:"foreignKey:CustomerID"`
	Appointments []Appointment      `json:"appointments,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Location resolves the customer's time zone, falling back to UTC when the
// zone name is empty or unknown.
func (c *Customer) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EnabledSchedules returns only the schedule entries flagged as enabled.
func (c *Customer) EnabledSchedules() []CustomerSchedule {
	var out []CustomerSchedule
	for _, s := range c.Schedules {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}
