package services

import (
	"testing"
	"time"

	"warrantly/internal/models"
	"warrantly/internal/warranty"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func workerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Reminder{},
		&models.NotificationSetting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func workerProduct(t *testing.T, db *gorm.DB, username, name string, end time.Time) models.Product {
	t.Helper()
	product := models.Product{
		Username:        username,
		Name:            name,
		Category:        models.OtherCategory,
		PurchaseDate:    end.AddDate(-1, 0, 0),
		WarrantyMonths:  12,
		WarrantyEndDate: end,
		Documents:       models.DocumentList{},
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

func TestEnsureProductReminderIdempotent(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	product := workerProduct(t, db, "alice", "Laptop", now.AddDate(0, 0, 60))

	EnsureProductReminder(db, product, 7, now)
	EnsureProductReminder(db, product, 7, now)
	EnsureProductReminder(db, product, 7, now.Add(5*time.Hour))

	var reminders []models.Reminder
	if err := db.Where("product_id = ?", product.ID).Find(&reminders).Error; err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder after repeated runs, got %d", len(reminders))
	}

	want := warranty.StartOfDay(product.WarrantyEndDate).AddDate(0, 0, -7)
	if !warranty.SameCalendarDay(reminders[0].ReminderDate, want) {
		t.Errorf("reminder date = %v, want %v", reminders[0].ReminderDate, want)
	}
}

func TestEnsureProductReminderSkipsPastDates(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	product := workerProduct(t, db, "alice", "Old phone", now.AddDate(0, 0, 3))

	// Lead of 7 puts the reminder date 4 days in the past
	EnsureProductReminder(db, product, 7, now)

	var count int64
	db.Model(&models.Reminder{}).Where("product_id = ?", product.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no reminder for a past reminder date, got %d rows", count)
	}
}

func TestCheckWarrantiesSchedulesWithoutDispatch(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	account := models.Account{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	// 60 days out: outside the default 30-day notice window, so the pass
	// schedules the reminder but sends nothing
	product := workerProduct(t, db, "alice", "Camera", now.AddDate(0, 0, 60))

	worker := &ReminderWorker{db: db}
	worker.checkWarranties(now)

	var reminders []models.Reminder
	if err := db.Where("product_id = ?", product.ID).Find(&reminders).Error; err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 scheduled reminder, got %d", len(reminders))
	}
	if reminders[0].IsSent {
		t.Error("reminder should not be marked sent outside the notice window")
	}
	if reminders[0].LastNotifiedAt != nil {
		t.Error("reminder should have no notification recorded")
	}
}

func TestCheckWarrantiesHonorsDisabledSettings(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	account := models.Account{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	settings := models.NotificationSetting{
		Username:         "alice",
		Enabled:          false,
		UseAccountEmail:  true,
		NotifyBefore:     30,
		Frequency:        warranty.FrequencyOnce,
		ReminderLeadDays: 7,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}
	product := workerProduct(t, db, "alice", "Camera", now.AddDate(0, 0, 10))

	worker := &ReminderWorker{db: db}
	worker.checkWarranties(now)

	var count int64
	db.Model(&models.Reminder{}).Where("product_id = ?", product.ID).Count(&count)
	if count != 0 {
		t.Errorf("disabled notifications should skip the account entirely, got %d reminders", count)
	}
}

func TestLoadSettingsFallsBackToDefaults(t *testing.T) {
	db := workerTestDB(t)
	worker := &ReminderWorker{db: db}

	settings, leadDays := worker.loadSettings("nobody")
	if settings != warranty.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", settings)
	}
	if leadDays != warranty.DefaultLeadDays {
		t.Errorf("lead days = %d, want %d", leadDays, warranty.DefaultLeadDays)
	}
}

func TestLatestReminderPicksNewestDate(t *testing.T) {
	db := workerTestDB(t)
	worker := &ReminderWorker{db: db}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		reminder := models.Reminder{
			Username:     "alice",
			ProductID:    1,
			ReminderDate: base.AddDate(0, 0, i),
			LeadDays:     7,
			Message:      "m",
		}
		if err := db.Create(&reminder).Error; err != nil {
			t.Fatalf("failed to create reminder: %v", err)
		}
	}

	got := worker.latestReminder(1)
	if got == nil {
		t.Fatal("expected a reminder")
	}
	if !warranty.SameCalendarDay(got.ReminderDate, base.AddDate(0, 0, 2)) {
		t.Errorf("latest reminder date = %v, want %v", got.ReminderDate, base.AddDate(0, 0, 2))
	}

	if worker.latestReminder(99) != nil {
		t.Error("expected nil for a product with no reminders")
	}
}

type recordedSend struct {
	toEmail  string
	daysLeft int
	message  string
}

type fakeSender struct {
	sends []recordedSend
}

func (f *fakeSender) SendWarrantyReminder(toEmail, toName string, product models.Product, daysLeft int, message string) error {
	f.sends = append(f.sends, recordedSend{toEmail: toEmail, daysLeft: daysLeft, message: message})
	return nil
}

func TestDispatchMarksReminderSentOncePerDay(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	account := models.Account{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	// Expires today, never had a scheduled reminder
	product := workerProduct(t, db, "alice", "Toaster", warranty.StartOfDay(now))

	sender := &fakeSender{}
	worker := &ReminderWorker{db: db, emailService: sender}
	worker.checkWarranties(now)

	if len(sender.sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sends))
	}
	if sender.sends[0].toEmail != "alice@example.com" {
		t.Errorf("sent to %q, want the account email", sender.sends[0].toEmail)
	}
	if sender.sends[0].daysLeft != 0 {
		t.Errorf("daysLeft = %d, want 0", sender.sends[0].daysLeft)
	}

	var reminders []models.Reminder
	if err := db.Where("product_id = ?", product.ID).Find(&reminders).Error; err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder row, got %d", len(reminders))
	}
	if !reminders[0].IsSent || reminders[0].SentAt == nil {
		t.Error("reminder should be marked sent")
	}
	if reminders[0].LastNotifiedAt == nil || !warranty.SameCalendarDay(*reminders[0].LastNotifiedAt, now) {
		t.Errorf("last_notified_at = %v, want today", reminders[0].LastNotifiedAt)
	}

	// The worker ticks hourly; the same day must not produce a second mail
	worker.checkWarranties(now.Add(time.Hour))
	if len(sender.sends) != 1 {
		t.Errorf("second pass on the same day sent again, got %d sends", len(sender.sends))
	}

	// The next day the once frequency holds it back too
	worker.checkWarranties(now.AddDate(0, 0, 1))
	if len(sender.sends) != 1 {
		t.Errorf("once frequency should not re-fire the next day, got %d sends", len(sender.sends))
	}
}

func TestDispatchUsesOverrideAddress(t *testing.T) {
	db := workerTestDB(t)
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	account := models.Account{Username: "alice", Email: "alice@example.com"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	settings := models.NotificationSetting{
		Username:          "alice",
		Enabled:           true,
		UseAccountEmail:   false,
		NotificationEmail: "alerts@example.com",
		NotifyBefore:      30,
		Frequency:         warranty.FrequencyOnce,
		NotifyOnExpiry:    true,
		NotifyAfterExpiry: true,
		ReminderLeadDays:  7,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}
	workerProduct(t, db, "alice", "Blender", now.AddDate(0, 0, 10))

	sender := &fakeSender{}
	worker := &ReminderWorker{db: db, emailService: sender}
	worker.checkWarranties(now)

	if len(sender.sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sends))
	}
	if sender.sends[0].toEmail != "alerts@example.com" {
		t.Errorf("sent to %q, want the override address", sender.sends[0].toEmail)
	}
}

func TestDisabledSettingsRoundTrip(t *testing.T) {
	db := workerTestDB(t)

	settings := models.NotificationSetting{
		Username:         "alice",
		Enabled:          false,
		UseAccountEmail:  false,
		NotifyBefore:     30,
		Frequency:        warranty.FrequencyOnce,
		ReminderLeadDays: 7,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}

	var stored models.NotificationSetting
	if err := db.Where("username = ?", "alice").First(&stored).Error; err != nil {
		t.Fatalf("failed to reload settings: %v", err)
	}
	if stored.Enabled {
		t.Error("Enabled=false must survive the insert")
	}
	if stored.UseAccountEmail {
		t.Error("UseAccountEmail=false must survive the insert")
	}
}
