package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"gorm.io/gorm"
)

// DeleteScope says how a delete applies to a synced recurring series.
type DeleteScope string

const (
	ScopeOccurrence DeleteScope = "occurrence"
	ScopeSeries     DeleteScope = "series"
)

// UpdateMode says how an edit applies to a synced recurring series.
type UpdateMode string

const (
	ModeDetach UpdateMode = "detach"
	ModeSeries UpdateMode = "series"
)

// ErrScopeRequired is returned when a series member is deleted or updated
// without the caller saying whether the whole series is affected. There is
// deliberately no implicit default.
var ErrScopeRequired = errors.New("appointment belongs to a synced series: specify occurrence or series scope")

// SyncResult reports one customer's sync pass.
type SyncResult struct {
	CustomerID         uint     `json:"customer_id"`
	EventsCreated      int      `json:"events_created"`
	AppointmentsSynced int      `json:"appointments_synced"`
	Unauthorized       bool     `json:"unauthorized,omitempty"`
	Errors             []string `json:"errors,omitempty"`
}

// Orchestrator pushes local appointments to the external calendar and owns
// the only write path for calendar event IDs. An appointment with a non-nil
// event ID is never re-submitted, which makes repeated sync runs no-ops.
type Orchestrator struct {
	db            *gorm.DB
	service       Service
	auth          AuthChecker
	horizonMonths int
	callTimeout   time.Duration
	now           func() time.Time
}

func NewOrchestrator(db *gorm.DB, service Service, auth AuthChecker, horizonMonths int, callTimeout time.Duration, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	if horizonMonths <= 0 {
		horizonMonths = 3
	}
	return &Orchestrator{
		db:            db,
		service:       service,
		auth:          auth,
		horizonMonths: horizonMonths,
		callTimeout:   callTimeout,
		now:           now,
	}
}

// SyncCustomer groups the customer's future unsynced appointments and
// creates one calendar event per group. Each group is attempted
// independently: an API failure is logged with retry context and the row
// stays unsynced for the next run.
func (o *Orchestrator) SyncCustomer(ctx context.Context, customer *models.Customer) (*SyncResult, error) {
	result := &SyncResult{CustomerID: customer.ID}

	if o.auth == nil || !o.auth.Authorized(ctx) {
		log.Printf("Calendar sync skipped for customer %d: not authorized", customer.ID)
		result.Unauthorized = true
		return result, nil
	}

	var pending []models.Appointment
	err := o.db.WithContext(ctx).
		Where("customer_id = ?", customer.ID).
		Where("status = ?", models.StatusScheduled).
		Where("calendar_event_id IS NULL").
		Where("start_time > ?", o.now()).
		Order("start_time asc").
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load unsynced appointments for customer %d: %w", customer.ID, err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	loc := customer.Location()
	for _, group := range GroupRecurring(pending, loc) {
		if err := o.syncGroup(ctx, customer, group, result); err != nil {
			// Isolated: remaining groups still get their chance.
			result.Errors = append(result.Errors, err.Error())
			log.Printf("Calendar sync failed for customer %d group at %s: %v",
				customer.ID, group.Appointments[0].StartTime.Format(time.RFC3339), err)
		}
	}
	return result, nil
}

func (o *Orchestrator) syncGroup(ctx context.Context, customer *models.Customer, group Group, result *SyncResult) error {
	input, err := o.eventInput(customer, group)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	eventID, err := o.service.CreateEvent(callCtx, input)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}

	// The event ID write is the only thing that marks rows as synced, and it
	// happens only after the calendar confirmed the create.
	err = o.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id IN ?", group.IDs()).
		Updates(map[string]interface{}{
			"calendar_event_id": eventID,
			"is_recurring_sync": group.IsSeries(),
		}).Error
	if err != nil {
		return fmt.Errorf("event %s created but local rows not marked: %w", eventID, err)
	}

	result.EventsCreated++
	result.AppointmentsSynced += len(group.Appointments)
	return nil
}

func (o *Orchestrator) eventInput(customer *models.Customer, group Group) (EventInput, error) {
	first := group.Appointments[0]
	input := EventInput{
		Title:    fmt.Sprintf("Appointment: %s", customer.Name),
		Start:    first.StartTime,
		End:      first.EndTime(),
		Timezone: customer.Timezone,
	}
	if group.IsSeries() {
		rule, err := BuildRule(group.Appointments, customer.Location(), o.horizonMonths)
		if err != nil {
			return EventInput{}, err
		}
		input.Recurrence = rule.Encode()
	}
	return input, nil
}

// DeleteAppointment removes an appointment and reconciles the external
// calendar. For members of a synced series the caller must pick a scope:
// ScopeOccurrence detaches just this row, ScopeSeries removes the upstream
// event and unmarks every row it covered.
func (o *Orchestrator) DeleteAppointment(ctx context.Context, appointmentID uint, scope DeleteScope) error {
	var appt models.Appointment
	if err := o.db.WithContext(ctx).First(&appt, appointmentID).Error; err != nil {
		return fmt.Errorf("appointment %d not found: %w", appointmentID, err)
	}

	tx := o.db.WithContext(ctx)

	if !appt.IsSynced() {
		return tx.Delete(&appt).Error
	}

	if appt.IsRecurringSync {
		switch scope {
		case ScopeOccurrence:
			// Detach: the upstream series stays; only the local row goes.
			if err := tx.Model(&appt).Update("calendar_event_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&appt).Error
		case ScopeSeries:
			if err := o.deleteUpstream(ctx, *appt.CalendarEventID); err != nil {
				return err
			}
			err := tx.Model(&models.Appointment{}).
				Where("calendar_event_id = ?", *appt.CalendarEventID).
				Updates(map[string]interface{}{
					"calendar_event_id": nil,
					"is_recurring_sync": false,
				}).Error
			if err != nil {
				return err
			}
			return tx.Delete(&appt).Error
		default:
			return ErrScopeRequired
		}
	}

	// Standalone synced appointment.
	if err := o.deleteUpstream(ctx, *appt.CalendarEventID); err != nil {
		return err
	}
	if err := tx.Model(&appt).Update("calendar_event_id", nil).Error; err != nil {
		return err
	}
	return tx.Delete(&appt).Error
}

// UpdateAppointment propagates an already-saved local edit upstream. A
// standalone synced appointment updates its event in place. For a series
// member the caller must choose: detach into a standalone event, or reshape
// the whole series' recurrence.
func (o *Orchestrator) UpdateAppointment(ctx context.Context, appointmentID uint, mode UpdateMode) error {
	var appt models.Appointment
	if err := o.db.WithContext(ctx).Preload("Customer").First(&appt, appointmentID).Error; err != nil {
		return fmt.Errorf("appointment %d not found: %w", appointmentID, err)
	}
	if !appt.IsSynced() {
		// Nothing upstream to reconcile; the next sync run picks it up.
		return nil
	}

	customer := appt.Customer
	standaloneInput := EventInput{
		Title:    fmt.Sprintf("Appointment: %s", customer.Name),
		Start:    appt.StartTime,
		End:      appt.EndTime(),
		Timezone: customer.Timezone,
	}

	if !appt.IsRecurringSync {
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		return o.service.UpdateEvent(callCtx, *appt.CalendarEventID, standaloneInput)
	}

	switch mode {
	case ModeDetach:
		// Leave the series, become a standalone event.
		if err := o.db.WithContext(ctx).Model(&appt).
			Updates(map[string]interface{}{
				"calendar_event_id": nil,
				"is_recurring_sync": false,
			}).Error; err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		eventID, err := o.service.CreateEvent(callCtx, standaloneInput)
		if err != nil {
			// Row stays unsynced; the next run retries.
			return fmt.Errorf("detached but standalone create failed: %w", err)
		}
		return o.db.WithContext(ctx).Model(&appt).
			Update("calendar_event_id", eventID).Error
	case ModeSeries:
		var members []models.Appointment
		err := o.db.WithContext(ctx).
			Where("calendar_event_id = ?", *appt.CalendarEventID).
			Order("start_time asc").
			Find(&members).Error
		if err != nil {
			return err
		}
		rule, err := BuildRule(members, customer.Location(), o.horizonMonths)
		if err != nil {
			return err
		}
		first := members[0]
		input := EventInput{
			Title:      fmt.Sprintf("Appointment: %s", customer.Name),
			Start:      first.StartTime,
			End:        first.EndTime(),
			Timezone:   customer.Timezone,
			Recurrence: rule.Encode(),
		}
		callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
		return o.service.UpdateEvent(callCtx, *appt.CalendarEventID, input)
	default:
		return ErrScopeRequired
	}
}

// DeleteForCustomer bulk-deletes all of a customer's appointments, removing
// each distinct upstream event once.
func (o *Orchestrator) DeleteForCustomer(ctx context.Context, customerID uint) error {
	var appts []models.Appointment
	err := o.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&appts).Error
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for i := range appts {
		if !appts[i].IsSynced() {
			continue
		}
		id := *appts[i].CalendarEventID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if err := o.deleteUpstream(ctx, id); err != nil {
			log.Printf("Failed to delete calendar event %s for customer %d: %v", id, customerID, err)
		}
	}

	return o.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Delete(&models.Appointment{}).Error
}

func (o *Orchestrator) deleteUpstream(ctx context.Context, eventID string) error {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()
	if err := o.service.DeleteEvent(callCtx, eventID); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}
