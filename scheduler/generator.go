package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/utils"
	"gorm.io/gorm"
)

// Window is the date range over which appointments may be materialized.
// Both bounds are inclusive at day granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Validate() error {
	if w.End.Before(w.Start) {
		return fmt.Errorf("invalid generation window: end %s before start %s",
			w.End.Format("2006-01-02"), w.Start.Format("2006-01-02"))
	}
	return nil
}

// Generator materializes appointments over a window from a customer's
// explicit schedule entries, or from detected patterns when the customer has
// none. Generation is replay-safe: a candidate whose exact start instant
// already exists is silently skipped, so re-running a window is a no-op.
type Generator struct {
	db           *gorm.DB
	now          func() time.Time
	ceiling      int
	lookbackDays int
}

func NewGenerator(db *gorm.DB, ceiling, lookbackDays int, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	if ceiling <= 0 {
		ceiling = 60
	}
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Generator{db: db, now: now, ceiling: ceiling, lookbackDays: lookbackDays}
}

// slot is a uniform view over explicit schedules and detected patterns.
type slot struct {
	weekday       time.Weekday
	hour          int
	minute        int
	durationHours float64
	source        string
	frequency     Frequency
}

// GenerateForCustomer runs one customer's generation pass. In preview mode
// the identical candidate set is computed and reported without persisting.
func (g *Generator) GenerateForCustomer(ctx context.Context, customer *models.Customer, window Window, preview bool) (*CustomerResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	result := &CustomerResult{CustomerID: customer.ID}
	loc := customer.Location()

	slots, err := g.slotsForCustomer(ctx, customer, loc)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		// No explicit schedule and no detectable pattern. Not an error.
		return result, nil
	}

	existing, err := g.loadWindowAppointments(ctx, customer.ID, window)
	if err != nil {
		return nil, err
	}

	now := g.now()
	for day := window.Start.In(loc); !day.After(window.End.In(loc)); day = day.AddDate(0, 0, 1) {
		for _, s := range slots {
			if s.weekday != day.Weekday() {
				continue
			}
			start := utils.AtTime(day, s.hour, s.minute, loc)

			// Past-time guard.
			if !start.After(now) {
				result.PastSkips++
				continue
			}
			// Existence check: identical start instant means the row was
			// already materialized by an earlier run.
			if hasExactStart(existing, start) {
				result.DuplicateSkips++
				continue
			}
			// Conflict check against occupied intervals.
			if HasConflict(start, s.durationHours, existing) {
				result.ConflictSkips++
				continue
			}
			// Creation ceiling.
			if result.Created >= g.ceiling {
				result.CeilingSkips++
				continue
			}

			candidate := Candidate{
				CustomerID:    customer.ID,
				StartTime:     start,
				DurationHours: s.durationHours,
				Source:        s.source,
				Frequency:     s.frequency,
			}
			if preview {
				result.Candidates = append(result.Candidates, candidate)
				result.Created++
				continue
			}

			appt := models.Appointment{
				CustomerID:    customer.ID,
				StartTime:     start,
				DurationHours: s.durationHours,
				Status:        models.StatusScheduled,
				Notes:         fmt.Sprintf("Auto-generated from %s", s.source),
			}
			if err := g.db.WithContext(ctx).Create(&appt).Error; err != nil {
				if len(result.Errors) < maxReportErrors {
					result.Errors = append(result.Errors, ReportEntry{
						CustomerID: customer.ID,
						Customer:   customer.Name,
						Time:       start,
						Reason:     fmt.Sprintf("failed to create appointment: %v", err),
					})
				}
				continue
			}
			result.Created++
			// Newly created rows take part in conflict and duplicate checks
			// for the rest of this run.
			existing = append(existing, appt)
		}
	}

	return result, nil
}

// slotsForCustomer prefers the customer's explicit enabled schedule; when
// there is none it falls back to pattern detection over recent history.
func (g *Generator) slotsForCustomer(ctx context.Context, customer *models.Customer, loc *time.Location) ([]slot, error) {
	var out []slot

	for _, sched := range customer.EnabledSchedules() {
		hour, minute, err := utils.ParseHHMM(sched.StartTime)
		if err != nil {
			return nil, fmt.Errorf("customer %d schedule %d: %w", customer.ID, sched.ID, err)
		}
		out = append(out, slot{
			weekday:       time.Weekday(sched.DayOfWeek),
			hour:          hour,
			minute:        minute,
			durationHours: sched.DurationHours,
			source:        "schedule",
			frequency:     FrequencyWeekly,
		})
	}
	if len(out) > 0 {
		return out, nil
	}

	history, err := g.loadHistory(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range DetectPatterns(history, loc) {
		for _, wd := range p.Weekdays {
			out = append(out, slot{
				weekday:       wd,
				hour:          p.Hour,
				minute:        p.Minute,
				durationHours: p.DurationHours,
				source:        "pattern",
				frequency:     p.Frequency,
			})
		}
	}
	return out, nil
}

func (g *Generator) loadHistory(ctx context.Context, customerID uint) ([]models.Appointment, error) {
	since := g.now().AddDate(0, 0, -g.lookbackDays)
	var history []models.Appointment
	err := g.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("start_time >= ? AND start_time <= ?", since, g.now()).
		Order("start_time asc").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history for customer %d: %w", customerID, err)
	}
	return history, nil
}

// loadWindowAppointments fetches every row that could collide with a window
// candidate, padded by a day on each side so intervals crossing the window
// edge are still seen.
func (g *Generator) loadWindowAppointments(ctx context.Context, customerID uint, window Window) ([]models.Appointment, error) {
	var rows []models.Appointment
	err := g.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("start_time >= ? AND start_time <= ?",
			window.Start.Add(-24*time.Hour), window.End.Add(48*time.Hour)).
		Order("start_time asc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments for customer %d: %w", customerID, err)
	}
	return rows, nil
}

// hasExactStart checks the duplicate-instant guard. Cancelled rows count
// too: a slot the customer explicitly cancelled must not silently
// reappear on the next run.
func hasExactStart(existing []models.Appointment, start time.Time) bool {
	for i := range existing {
		if existing[i].StartTime.Equal(start) {
			return true
		}
	}
	return false
}
