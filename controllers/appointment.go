package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/calendar"
	"github.com/meinhoongagan/appointment-sync/db"
	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/scheduler"
	"github.com/meinhoongagan/appointment-sync/utils"
)

// GetAllAppointments returns appointments, optionally filtered by customer
// and time window (from/to as RFC3339 or YYYY-MM-DD)
func GetAllAppointments(c *fiber.Ctx) error {
	query := db.DB.Order("start_time asc")

	if customerID := c.QueryInt("customer_id"); customerID > 0 {
		query = query.Where("customer_id = ?", customerID)
	}
	if from, ok := parseTimeParam(c.Query("from")); ok {
		query = query.Where("start_time >= ?", from)
	}
	if to, ok := parseTimeParam(c.Query("to")); ok {
		query = query.Where("start_time <= ?", to)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointments)
}

// GetAppointment returns an appointment by ID
func GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	var appointment models.Appointment
	if err := db.DB.Preload("Customer").First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointment)
}

// CreateAppointment creates a manual appointment after validating the slot
func CreateAppointment(c *fiber.Ctx) error {
	var appointment models.Appointment
	if err := c.BodyParser(&appointment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if appointment.Status != "" && !models.ValidStatus(appointment.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment status",
			Error:   string(appointment.Status),
		})
	}

	// Duplicate-instant check
	var count int64
	db.DB.Model(&models.Appointment{}).
		Where("customer_id = ? AND start_time = ?", appointment.CustomerID, appointment.StartTime).
		Count(&count)
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "An appointment already exists at this time",
			Error:   "duplicate start time",
		})
	}

	// Conflict check against the customer's occupied intervals
	conflict, err := scheduler.HasConflictDB(db.DB, appointment.CustomerID, 0, appointment.StartTime, appointment.DurationHours)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to check availability",
			Error:   err.Error(),
		})
	}
	if conflict {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "The requested slot overlaps an existing appointment",
			Error:   "conflict",
		})
	}

	if err := db.DB.Create(&appointment).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to create appointment",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// UpdateAppointmentStatus applies a validated status transition
func UpdateAppointmentStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var body struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	var appointment models.Appointment
	if err := db.DB.First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	if err := appointment.UpdateStatus(db.DB, body.Status); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid status transition",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointment)
}

// UpdateAppointment reschedules an appointment and propagates the edit to
// the external calendar. Members of a synced series require mode=detach or
// mode=series; there is no implicit default.
func UpdateAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	var body struct {
		StartTime     *time.Time `json:"start_time"`
		DurationHours *float64   `json:"duration_hours"`
		Notes         *string    `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	var appointment models.Appointment
	if err := db.DB.First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}

	mode := calendar.UpdateMode(c.Query("mode"))
	if appointment.IsSynced() && appointment.IsRecurringSync && mode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Appointment is part of a synced series",
			Error:   "specify mode=detach or mode=series",
		})
	}

	if body.DurationHours != nil && (*body.DurationHours <= 0 || *body.DurationHours > 24) {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Duration must be between 0 and 24 hours",
			Error:   "invalid duration",
		})
	}

	if body.StartTime != nil {
		appointment.StartTime = *body.StartTime
	}
	if body.DurationHours != nil {
		appointment.DurationHours = *body.DurationHours
	}
	if body.Notes != nil {
		appointment.Notes = *body.Notes
	}

	// A reschedule must pass the same slot validation as a create, ignoring
	// the row's own current interval.
	if body.StartTime != nil || body.DurationHours != nil {
		var count int64
		db.DB.Model(&models.Appointment{}).
			Where("customer_id = ? AND start_time = ? AND id <> ?", appointment.CustomerID, appointment.StartTime, appointment.ID).
			Count(&count)
		if count > 0 {
			return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
				Message: "An appointment already exists at this time",
				Error:   "duplicate start time",
			})
		}
		conflict, err := scheduler.HasConflictDB(db.DB, appointment.CustomerID, appointment.ID, appointment.StartTime, appointment.DurationHours)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
				Message: "Failed to check availability",
				Error:   err.Error(),
			})
		}
		if conflict {
			return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
				Message: "The requested slot overlaps an existing appointment",
				Error:   "conflict",
			})
		}
	}

	if err := db.DB.Save(&appointment).Error; err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to update appointment",
			Error:   err.Error(),
		})
	}

	if err := orchestrator.UpdateAppointment(c.Context(), appointment.ID, mode); err != nil {
		if errors.Is(err, calendar.ErrScopeRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Appointment is part of a synced series",
				Error:   err.Error(),
			})
		}
		// The local edit is saved; the calendar write failed and will be
		// retried by the next sync run.
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"appointment": appointment,
			"warning":     "saved locally, calendar update failed: " + err.Error(),
		})
	}
	return c.JSON(appointment)
}

// DeleteAppointment deletes an appointment. Members of a synced series
// require scope=occurrence or scope=series.
func DeleteAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment ID",
			Error:   c.Params("id"),
		})
	}

	scope := calendar.DeleteScope(c.Query("scope"))
	if err := orchestrator.DeleteAppointment(c.Context(), uint(id), scope); err != nil {
		if errors.Is(err, calendar.ErrScopeRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Appointment is part of a synced series",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete appointment",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteCustomerAppointments bulk-deletes all appointments of a customer
func DeleteCustomerAppointments(c *fiber.Ctx) error {
	customerID, err := c.ParamsInt("customerID")
	if err != nil || customerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid customer ID",
			Error:   c.Params("customerID"),
		})
	}
	if err := orchestrator.DeleteForCustomer(c.Context(), uint(customerID)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete appointments",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseTimeParam(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
