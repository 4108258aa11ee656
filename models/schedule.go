package models

import (
	"gorm.io/gorm"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// CustomerSchedule is an explicit, user-declared recurring slot: "every
// Tuesday at 14:00 for 1.5 hours". It is managed by the customer-management
// side of the system and read-only to the scheduling engine, which uses it
// as an alternative input to pattern detection.
type CustomerSchedule struct {
	gorm.Model
	CustomerID    uint      `json:"customer_id" gorm:"index"`
	DayOfWeek     DayOfWeek `json:"day_of_week"`
	StartTime     string    `json:"start_time"` // Format "HH:MM" in 24h
	DurationHours float64   `json:"duration_hours"`
	Enabled       bool      `json:"enabled"`
}
