package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/meinhoongagan/appointment-sync/calendar"
	"github.com/meinhoongagan/appointment-sync/config"
	"github.com/meinhoongagan/appointment-sync/controllers"
	"github.com/meinhoongagan/appointment-sync/cron"
	"github.com/meinhoongagan/appointment-sync/db"
	"github.com/meinhoongagan/appointment-sync/redis"
	"github.com/meinhoongagan/appointment-sync/routes"
	"github.com/meinhoongagan/appointment-sync/scheduler"
)

func main() {
	settings := config.Load()
	db.Init()
	redis.InitRedis()

	tokens := calendar.NewTokenStore(redis.Client)
	calendarAPI := calendar.NewRESTService(os.Getenv("CALENDAR_API_URL"), tokens)

	generator := scheduler.NewGenerator(db.DB, settings.GenerationCeiling, settings.LookbackDays, time.Now)
	coordinator := scheduler.NewCoordinator(
		db.DB, generator,
		settings.WindowMonths, settings.Workers,
		time.Duration(settings.RunIntervalHours*float64(time.Hour)),
		time.Now,
	)
	orchestrator := calendar.NewOrchestrator(
		db.DB, calendarAPI, tokens,
		settings.HorizonMonths,
		time.Duration(settings.SyncTimeoutSec)*time.Second,
		time.Now,
	)

	controllers.Setup(coordinator, orchestrator, tokens)
	cron.StartCronJobs(settings.CronSpec, coordinator, orchestrator)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello, World!")
	})
	routes.SetupAppointmentRoutes(app)
	routes.SetupSchedulerRoutes(app)
	routes.SetupCustomerRoutes(app)

	app.Listen(":8000")
	fmt.Println("Server started on port 8000")
}
