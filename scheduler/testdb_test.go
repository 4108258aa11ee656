package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.CustomerSchedule{}, &models.Appointment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, schedules ...models.CustomerSchedule) models.Customer {
	t.Helper()
	customer := models.Customer{
		Name:     "Test Customer",
		Email:    "customer@example.com",
		Active:   true,
		Timezone: "UTC",
	}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	for i := range schedules {
		schedules[i].CustomerID = customer.ID
		if err := db.Create(&schedules[i]).Error; err != nil {
			t.Fatalf("failed to seed schedule: %v", err)
		}
	}
	customer.Schedules = schedules
	return customer
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
