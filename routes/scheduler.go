package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/appointment-sync/controllers"
)

// SetupSchedulerRoutes configures generation and sync trigger routes
func SetupSchedulerRoutes(app *fiber.App) {
	sched := app.Group("/scheduler")
	sched.Post("/run", controllers.RunGeneration)
	sched.Get("/next-run", controllers.GetNextRun)
	sched.Post("/sync/:customerID", controllers.SyncCustomer)
	sched.Put("/calendar/token", controllers.SetCalendarToken)
	sched.Delete("/calendar/token", controllers.ClearCalendarToken)
}
