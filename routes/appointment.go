package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/controllers"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App) {
	appointment := app.Group("/appointments")
	appointment.Get("/", controllers.GetAllAppointments)
	appointment.Get("/:id", controllers.GetAppointment)
	appointment.Post("/", controllers.CreateAppointment)
	appointment.Patch("/:id", controllers.UpdateAppointment)
	appointment.Patch("/:id/status", controllers.UpdateAppointmentStatus)
	appointment.Delete("/:id", controllers.DeleteAppointment)
	appointment.Delete("/customer/:customerID", controllers.DeleteCustomerAppointments)
}
