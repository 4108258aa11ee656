package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/controllers"
)

// SetupCustomerRoutes configures read-only customer routes
func SetupCustomerRoutes(app *fiber.App) {
	customer := app.Group("/customers")
	customer.Get("/", controllers.GetAllCustomers)
	customer.Get("/:id", controllers.GetCustomer)
	customer.Get("/:id/schedules", controllers.GetCustomerSchedules)
}
