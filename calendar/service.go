package calendar

import (
	"context"
	"time"
)

// Event is an event as the external calendar reports it.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Timezone    string    `json:"timezone"`
	Recurrence  string    `json:"recurrence,omitempty"`
}

// EventInput is the descriptor sent to the external calendar. Recurrence,
// when set, is an RRULE string such as
// "FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20250331T235959Z".
type EventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Timezone    string    `json:"timezone"`
	Recurrence  string    `json:"recurrence,omitempty"`
}

// Service is the external calendar collaborator. Implementations wrap a
// concrete provider API; the engine only depends on this interface.
type Service interface {
	CreateEvent(ctx context.Context, input EventInput) (string, error)
	UpdateEvent(ctx context.Context, eventID string, input EventInput) error
	DeleteEvent(ctx context.Context, eventID string) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
}

// AuthChecker reports whether calendar sync is currently authorized. When it
// returns false, sync is skipped but generation still proceeds.
type AuthChecker interface {
	Authorized(ctx context.Context) bool
}
