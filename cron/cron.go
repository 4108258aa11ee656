package cron

import (
	"context"
	"log"

	"github.com/meinhoongagan/appointment-sync/calendar"
	"github.com/meinhoongagan/appointment-sync/db"
	"github.com/meinhoongagan/appointment-sync/models"
	"github.com/meinhoongagan/appointment-sync/scheduler"
	"github.com/robfig/cron/v3"
)

// StartCronJobs initializes and starts the cron scheduler for the periodic
// generation and sync batch. The coordinator itself holds no timer state;
// this package is the job-scheduling collaborator that consumes its
// reported next-run time.
func StartCronJobs(spec string, coordinator *scheduler.Coordinator, orchestrator *calendar.Orchestrator) {
	log.Println("Starting cron job scheduler...")
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		runBatch(coordinator, orchestrator)
	})
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}
	c.Start()
	log.Printf("Cron job scheduler started for appointment generation (spec %q)", spec)
}

// runBatch generates appointments over the rolling window, then pushes the
// fresh ones to the external calendar.
func runBatch(coordinator *scheduler.Coordinator, orchestrator *calendar.Orchestrator) {
	ctx := context.Background()

	report, err := coordinator.RunAll(ctx, false)
	if err != nil {
		log.Printf("Scheduled generation run failed: %v", err)
		return
	}
	log.Printf("Scheduled run %s: created %d appointments for %d customers, next run %s",
		report.RunID, report.Created, report.CustomersProcessed,
		report.NextRun.Format("2006-01-02 15:04"))
	for _, e := range report.Errors {
		log.Printf("Generation issue: %s", e)
	}

	syncAll(ctx, orchestrator)
}

// syncAll runs a sync pass for every customer that still has unsynced
// scheduled appointments. Sync failures only affect their own customer.
func syncAll(ctx context.Context, orchestrator *calendar.Orchestrator) {
	var customerIDs []uint
	err := db.DB.WithContext(ctx).Model(&models.Appointment{}).
		Distinct("customer_id").
		Where("status = ? AND calendar_event_id IS NULL", models.StatusScheduled).
		Pluck("customer_id", &customerIDs).Error
	if err != nil {
		log.Printf("Failed to list customers pending sync: %v", err)
		return
	}

	for _, id := range customerIDs {
		var customer models.Customer
		if err := db.DB.WithContext(ctx).First(&customer, id).Error; err != nil {
			log.Printf("Failed to load customer %d for sync: %v", id, err)
			continue
		}
		result, err := orchestrator.SyncCustomer(ctx, &customer)
		if err != nil {
			log.Printf("Sync failed for customer %d: %v", id, err)
			continue
		}
		if result.Unauthorized {
			// One unauthorized answer applies to everyone; stop the pass.
			log.Println("Calendar sync not authorized, skipping remaining customers")
			return
		}
		log.Printf("Synced customer %d: %d events covering %d appointments",
			id, result.EventsCreated, result.AppointmentsSynced)
	}
}
