package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/db"
	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/utils"
)

// RunGeneration triggers a generation batch. With ?month=YYYY-MM it targets
// that explicit month instead of the rolling window; with ?preview=true it
// reports the candidate set without persisting anything.
func RunGeneration(c *fiber.Ctx) error {
	preview := c.QueryBool("preview")

	if month := c.Query("month"); month != "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid month, expected YYYY-MM",
				Error:   err.Error(),
			})
		}
		report, err := coordinator.RunMonth(c.Context(), t.Year(), t.Month(), preview)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
				Message: "Generation run failed",
				Error:   err.Error(),
			})
		}
		return c.JSON(report)
	}

	report, err := coordinator.RunAll(c.Context(), preview)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Generation run failed",
			Error:   err.Error(),
		})
	}
	return c.JSON(report)
}

// GetNextRun reports when the next periodic batch is due
func GetNextRun(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"next_run": coordinator.NextRun(),
	})
}

// SetCalendarToken stores the calendar access token; sync stays disabled
// until one is present
func SetCalendarToken(c *fiber.Ctx) error {
	var body struct {
		Token      string `json:"token"`
		ExpiresSec int    `json:"expires_sec"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "A non-empty token is required",
			Error:   "invalid body",
		})
	}
	ttl := time.Duration(body.ExpiresSec) * time.Second
	if err := tokens.SetToken(c.Context(), body.Token, ttl); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to store calendar token",
			Error:   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"authorized": true})
}

// ClearCalendarToken revokes the stored calendar token, turning sync off
func ClearCalendarToken(c *fiber.Ctx) error {
	if err := tokens.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to clear calendar token",
			Error:   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"authorized": false})
}

// SyncCustomer pushes one customer's unsynced appointments to the calendar
func SyncCustomer(c *fiber.Ctx) error {
	customerID, err := c.ParamsInt("customerID")
	if err != nil || customerID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid customer ID",
			Error:   c.Params("customerID"),
		})
	}

	var customer models.Customer
	if err := db.DB.First(&customer, customerID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Customer not found",
			Error:   err.Error(),
		})
	}

	result, err := orchestrator.SyncCustomer(c.Context(), &customer)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: fmt.Sprintf("Sync failed for customer %d", customerID),
			Error:   err.Error(),
		})
	}
	if result.Unauthorized {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"result":  result,
			"message": "Calendar sync is not authorized",
		})
	}
	return c.JSON(result)
}
