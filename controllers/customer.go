package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/db"
	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/utils"
)

// GetAllCustomers returns all customers with their schedules
func GetAllCustomers(c *fiber.Ctx) error {
	var customers []models.Customer
	if err := db.DB.Preload("Schedules").Find(&customers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch customers",
			Error:   err.Error(),
		})
	}
	return c.JSON(customers)
}

// GetCustomer returns a customer by ID
func GetCustomer(c *fiber.Ctx) error {
	id := c.Params("id")
	var customer models.Customer
	if err := db.DB.Preload("Schedules").First(&customer, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Customer not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(customer)
}

// GetCustomerSchedules returns the customer's recurring schedule entries.
// Schedules are managed by the customer-facing app; this engine only reads them.
func GetCustomerSchedules(c *fiber.Ctx) error {
	id := c.Params("id")
	var schedules []models.CustomerSchedule
	if err := db.DB.Where("customer_id = ?", id).Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch schedules",
			Error:   err.Error(),
		})
	}
	return c.JSON(schedules)
}
