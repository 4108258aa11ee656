package scheduler

import (
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"gorm.io/gorm"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. The predicate is symmetric.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict checks a candidate slot against a customer's existing
// appointments. Cancelled and no-show rows do not occupy their slot.
func HasConflict(start time.Time, durationHours float64, existing []models.Appointment) bool {
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))
	for i := range existing {
		a := &existing[i]
		if a.Status == models.StatusCancelled || a.Status == models.StatusNoShow {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime()) {
			return true
		}
	}
	return false
}

// HasConflictDB is the indexed variant of HasConflict: it asks the
// database for any occupied interval intersecting the candidate instead of
// scanning rows in memory. DurationHours lives in the row, so the range is
// pre-filtered on start_time and the exact half-open test happens in Go.
// excludeID skips one row, letting a reschedule ignore its own interval.
func HasConflictDB(tx *gorm.DB, customerID, excludeID uint, start time.Time, durationHours float64) (bool, error) {
	end := start.Add(time.Duration(durationHours * float64(time.Hour)))
	// Appointments are capped at a day (see models.Appointment.BeforeCreate),
	// so anything starting earlier cannot reach into the candidate interval.
	floor := start.Add(-24 * time.Hour)

	query := tx.
		Where("customer_id = ?", customerID).
		Where("start_time < ? AND start_time > ?", end, floor).
		Where("status NOT IN ?", []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow})
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []models.Appointment
	if err := query.Find(&rows).Error; err != nil {
		return false, err
	}
	return HasConflict(start, durationHours, rows), nil
}
