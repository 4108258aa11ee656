package calendar

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/meinhoongagan/appointment-sync/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var syncRef = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

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

// fakeService records calls in memory and can be told to fail.
type fakeService struct {
	createCalls int
	updateCalls int
	deleteCalls int
	events      map[string]EventInput
	failCreates int // fail this many creates before succeeding
}

func newFakeService() *fakeService {
	return &fakeService{events: map[string]EventInput{}}
}

func (f *fakeService) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	f.createCalls++
	if f.failCreates > 0 {
		f.failCreates--
		return "", errors.New("simulated API error")
	}
	id := fmt.Sprintf("evt-%d", len(f.events)+1)
	f.events[id] = input
	return id, nil
}

func (f *fakeService) UpdateEvent(ctx context.Context, eventID string, input EventInput) error {
	f.updateCalls++
	if _, ok := f.events[eventID]; !ok {
		return fmt.Errorf("unknown event %s", eventID)
	}
	f.events[eventID] = input
	return nil
}

func (f *fakeService) DeleteEvent(ctx context.Context, eventID string) error {
	f.deleteCalls++
	delete(f.events, eventID)
	return nil
}

func (f *fakeService) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	input, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", eventID)
	}
	return &Event{ID: eventID, Title: input.Title, Start: input.Start, End: input.End, Recurrence: input.Recurrence}, nil
}

type authStub bool

func (a authStub) Authorized(ctx context.Context) bool { return bool(a) }

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestOrchestrator(t *testing.T, db *gorm.DB, svc Service, authorized bool) *Orchestrator {
	t.Helper()
	return NewOrchestrator(db, svc, authStub(authorized), 3, 5*time.Second, fixedClock(syncRef))
}

func seedCustomerWithSeries(t *testing.T, db *gorm.DB, weeks int) (models.Customer, []models.Appointment) {
	t.Helper()
	customer := models.Customer{Name: "Sync Customer", Email: "sync@example.com", Active: true, Timezone: "UTC"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	appts := mwfAppointments(weeks)
	for i := range appts {
		appts[i].CustomerID = customer.ID
		if err := db.Create(&appts[i]).Error; err != nil {
			t.Fatalf("seed appointment: %v", err)
		}
	}
	return customer, appts
}

func TestSyncCreatesOneEventPerSeries(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)

	result, err := o.SyncCustomer(context.Background(), &customer)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.EventsCreated != 1 {
		t.Fatalf("created %d events, want 1 for the whole series", result.EventsCreated)
	}
	if result.AppointmentsSynced != 12 {
		t.Fatalf("synced %d appointments, want 12", result.AppointmentsSynced)
	}

	var rows []models.Appointment
	db.Where("customer_id = ?", customer.ID).Find(&rows)
	for _, r := range rows {
		if !r.IsSynced() || !r.IsRecurringSync {
			t.Fatalf("row at %s not marked as synced series member", r.StartTime)
		}
	}

	for _, input := range svc.events {
		if input.Recurrence != "FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20250131T235959Z" {
			t.Fatalf("unexpected recurrence %q", input.Recurrence)
		}
	}
}

func TestSyncIdempotence(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)

	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	callsAfterFirst := svc.createCalls

	second, err := o.SyncCustomer(context.Background(), &customer)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if second.EventsCreated != 0 {
		t.Fatalf("second sync created %d events, want 0", second.EventsCreated)
	}
	if svc.createCalls != callsAfterFirst {
		t.Fatalf("second sync issued %d extra calls", svc.createCalls-callsAfterFirst)
	}
}

func TestSyncSkipsWhenUnauthorized(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, false)

	result, err := o.SyncCustomer(context.Background(), &customer)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !result.Unauthorized {
		t.Fatal("expected unauthorized result")
	}
	if svc.createCalls != 0 {
		t.Fatalf("unauthorized sync still issued %d calls", svc.createCalls)
	}
}

func TestSyncFailureIsolation(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	// A second, unrelated standalone booking in its own group.
	standalone := models.Appointment{
		CustomerID:    customer.ID,
		StartTime:     time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC),
		DurationHours: 2,
		Status:        models.StatusScheduled,
	}
	if err := db.Create(&standalone).Error; err != nil {
		t.Fatalf("seed standalone: %v", err)
	}

	svc := newFakeService()
	svc.failCreates = 1 // first group fails, second succeeds
	o := newTestOrchestrator(t, db, svc, true)

	result, err := o.SyncCustomer(context.Background(), &customer)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 isolated error, got %v", result.Errors)
	}
	if result.EventsCreated != 1 {
		t.Fatalf("expected the surviving group to sync, created=%d", result.EventsCreated)
	}

	// The failed group's rows stay unsynced for the next run.
	var unsyncedCount int64
	db.Model(&models.Appointment{}).
		Where("customer_id = ? AND calendar_event_id IS NULL", customer.ID).
		Count(&unsyncedCount)
	if unsyncedCount == 0 {
		t.Fatal("failed group should remain unsynced")
	}
}

func TestDeleteOccurrenceDetaches(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).Order("start_time asc").First(&target)

	if err := o.DeleteAppointment(context.Background(), target.ID, ScopeOccurrence); err != nil {
		t.Fatalf("delete occurrence: %v", err)
	}
	if svc.deleteCalls != 0 {
		t.Fatal("occurrence delete must not touch the upstream series")
	}

	var remaining int64
	db.Model(&models.Appointment{}).
		Where("customer_id = ? AND calendar_event_id IS NOT NULL", customer.ID).
		Count(&remaining)
	if remaining != 11 {
		t.Fatalf("expected 11 rows still marked synced, got %d", remaining)
	}
}

func TestDeleteSeriesRemovesUpstream(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).Order("start_time asc").First(&target)

	if err := o.DeleteAppointment(context.Background(), target.ID, ScopeSeries); err != nil {
		t.Fatalf("delete series: %v", err)
	}
	if svc.deleteCalls != 1 {
		t.Fatalf("expected 1 upstream delete, got %d", svc.deleteCalls)
	}

	var stillSynced int64
	db.Model(&models.Appointment{}).
		Where("customer_id = ? AND calendar_event_id IS NOT NULL", customer.ID).
		Count(&stillSynced)
	if stillSynced != 0 {
		t.Fatalf("%d rows still carry the series event ID", stillSynced)
	}
}

func TestDeleteSeriesMemberRequiresScope(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).First(&target)

	err := o.DeleteAppointment(context.Background(), target.ID, "")
	if !errors.Is(err, ErrScopeRequired) {
		t.Fatalf("expected ErrScopeRequired, got %v", err)
	}
}

func TestUpdateDetachCreatesStandalone(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}
	callsAfterSync := svc.createCalls

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).Order("start_time asc").First(&target)
	seriesID := *target.CalendarEventID

	if err := o.UpdateAppointment(context.Background(), target.ID, ModeDetach); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if svc.createCalls != callsAfterSync+1 {
		t.Fatal("detach should create one standalone event")
	}

	db.First(&target, target.ID)
	if !target.IsSynced() || target.IsRecurringSync {
		t.Fatalf("detached row should be a synced standalone, got %+v", target)
	}
	if *target.CalendarEventID == seriesID {
		t.Fatal("detached row still points at the series event")
	}
}

func TestUpdateSeriesReshapesRecurrence(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).First(&target)

	if err := o.UpdateAppointment(context.Background(), target.ID, ModeSeries); err != nil {
		t.Fatalf("series update: %v", err)
	}
	if svc.updateCalls != 1 {
		t.Fatalf("expected 1 upstream update, got %d", svc.updateCalls)
	}
	input := svc.events[*target.CalendarEventID]
	if input.Recurrence == "" {
		t.Fatal("series update lost the recurrence rule")
	}
}

func TestUpdateSeriesMemberRequiresMode(t *testing.T) {
	db := newTestDB(t)
	customer, _ := seedCustomerWithSeries(t, db, 4)
	svc := newFakeService()
	o := newTestOrchestrator(t, db, svc, true)
	if _, err := o.SyncCustomer(context.Background(), &customer); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var target models.Appointment
	db.Where("customer_id = ?", customer.ID).First(&target)

	err := o.UpdateAppointment(context.Background(), target.ID, "")
	if !errors.Is(err, ErrScopeRequired) {
		t.Fatalf("expected ErrScopeRequired, got %v", err)
	}
}
