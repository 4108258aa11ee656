package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/appointment-sync/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Coordinator picks the rolling generation window, fans generation out over
// eligible customers and aggregates the batch report. It holds no mutable
// state between runs; the reported NextRun is consumed by the external job
// scheduling layer (see the cron package).
type Coordinator struct {
	db           *gorm.DB
	generator    *Generator
	now          func() time.Time
	windowMonths int
	workers      int
	runInterval  time.Duration
}

func NewCoordinator(db *gorm.DB, generator *Generator, windowMonths, workers int, runInterval time.Duration, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	if windowMonths <= 0 {
		windowMonths = 2
	}
	if workers <= 0 {
		workers = 4
	}
	if runInterval <= 0 {
		runInterval = 24 * time.Hour
	}
	return &Coordinator{
		db:           db,
		generator:    generator,
		now:          now,
		windowMonths: windowMonths,
		workers:      workers,
		runInterval:  runInterval,
	}
}

// RollingWindow returns the default generation window: from now to N months
// ahead.
func (c *Coordinator) RollingWindow() Window {
	now := c.now()
	return Window{Start: now, End: now.AddDate(0, c.windowMonths, 0)}
}

// MonthWindow returns the window covering one explicit calendar month, used
// by the manual generation path.
func (c *Coordinator) MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Second)}
}

// NextRun reports when the next periodic invocation should happen.
func (c *Coordinator) NextRun() time.Time {
	return c.now().Add(c.runInterval)
}

// RunAll generates appointments for every eligible customer over the rolling
// window.
func (c *Coordinator) RunAll(ctx context.Context, preview bool) (*RunReport, error) {
	return c.Run(ctx, c.RollingWindow(), preview)
}

// RunMonth is the manual path targeting an arbitrary explicit month.
func (c *Coordinator) RunMonth(ctx context.Context, year int, month time.Month, preview bool) (*RunReport, error) {
	return c.Run(ctx, c.MonthWindow(year, month), preview)
}

// Run executes one batch over the given window. Customers are processed in
// parallel with a bounded worker pool; one customer failing is recorded and
// does not abort the batch.
func (c *Coordinator) Run(ctx context.Context, window Window, preview bool) (*RunReport, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	customers, err := c.eligibleCustomers(ctx)
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:   uuid.NewString(),
		NextRun: c.NextRun(),
	}
	log.Printf("Generation run %s: %d eligible customers, window %s to %s",
		report.RunID, len(customers),
		window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i := range customers {
		customer := customers[i]
		g.Go(func() error {
			cr, err := c.generator.GenerateForCustomer(gctx, &customer, window, preview)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.CustomersProcessed++
				if len(report.Errors) < maxReportErrors {
					report.Errors = append(report.Errors, ReportEntry{
						CustomerID: customer.ID,
						Customer:   customer.Name,
						Time:       c.now(),
						Reason:     fmt.Sprintf("generation failed: %v", err),
					})
				}
				// Per-customer failures never abort the batch.
				return nil
			}
			report.absorb(cr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("Generation run %s finished: created=%d processed=%d conflicts=%d duplicates=%d ceiling=%d errors=%d",
		report.RunID, report.Created, report.CustomersProcessed,
		report.ConflictSkips, report.DuplicateSkips, report.CeilingSkips, len(report.Errors))
	return report, nil
}

// eligibleCustomers lists active customers that either declared a schedule or
// have enough history for pattern detection to possibly fire.
func (c *Coordinator) eligibleCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := c.db.WithContext(ctx).
		Preload("Schedules").
		Where("active = ?", true).
		Find(&customers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	lookback := c.now().AddDate(0, 0, -c.generator.lookbackDays)
	eligible := customers[:0]
	for _, customer := range customers {
		if len(customer.EnabledSchedules()) > 0 {
			eligible = append(eligible, customer)
			continue
		}
		var count int64
		err := c.db.WithContext(ctx).Model(&models.Appointment{}).
			Where("customer_id = ?", customer.ID).
			Where("start_time >= ?", lookback).
			Where("status NOT IN ?", []models.AppointmentStatus{models.StatusCancelled, models.StatusNoShow}).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count history for customer %d: %w", customer.ID, err)
		}
		if count >= 2 {
			eligible = append(eligible, customer)
		}
	}
	return eligible, nil
}
