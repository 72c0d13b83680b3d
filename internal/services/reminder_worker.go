package services

import (
	"log"
	"time"

	"warrantly/internal/database"
	"warrantly/internal/models"
	"warrantly/internal/warranty"

	"gorm.io/gorm"
)

// ReminderSender delivers a warranty reminder to a user. EmailService is
// the production implementation.
type ReminderSender interface {
	SendWarrantyReminder(toEmail, toName string, product models.Product, daysLeft int, message string) error
}

// ReminderWorker periodically scans every account's products, keeps their
// warranty reminders scheduled, and dispatches reminder emails according to
// each user's notification settings. It runs on a single goroutine, so
// writes to one product's reminder rows never race.
type ReminderWorker struct {
	db           *gorm.DB
	emailService ReminderSender
	interval     time.Duration
}

func NewReminderWorker() *ReminderWorker {
	return &ReminderWorker{
		db:           database.GetDB(),
		emailService: NewEmailService(),
		interval:     time.Hour, // Warranty windows move in days, hourly is plenty
	}
}

func (w *ReminderWorker) Start() {
	go w.run()
}

func (w *ReminderWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for range ticker.C {
		w.checkWarranties(time.Now())
	}
}

// checkWarranties is one full scan pass. The clock is passed in so the pass
// is reproducible in tests.
func (w *ReminderWorker) checkWarranties(now time.Time) {
	var accounts []models.Account
	if err := w.db.Find(&accounts).Error; err != nil {
		log.Printf("Reminder worker: failed to list accounts: %v", err)
		return
	}

	for _, account := range accounts {
		w.processAccount(account, now)
	}
}

// loadSettings returns the account's resolved notification settings and
// reminder lead-day preference
func (w *ReminderWorker) loadSettings(username string) (warranty.Settings, int) {
	var row models.NotificationSetting
	if err := w.db.Where("username = ?", username).First(&row).Error; err != nil {
		return warranty.DefaultSettings(), warranty.DefaultLeadDays
	}
	return row.Resolved(), row.ReminderLeadDays
}

func (w *ReminderWorker) processAccount(account models.Account, now time.Time) {
	settings, leadDays := w.loadSettings(account.Username)
	if !settings.Enabled {
		return
	}

	var products []models.Product
	if err := w.db.Where("username = ?", account.Username).Find(&products).Error; err != nil {
		log.Printf("Reminder worker: failed to list products for %s: %v", account.Username, err)
		return
	}

	for _, product := range products {
		info, err := warranty.ComputeStatus(product.PurchaseDate, product.WarrantyEndDate, now)
		if err != nil {
			log.Printf("Reminder worker: bad dates on product %d: %v", product.ID, err)
			continue
		}

		w.EnsureReminder(product, leadDays, now)

		reminder := w.latestReminder(product.ID)
		var lastNotifiedAt *time.Time
		if reminder != nil {
			lastNotifiedAt = reminder.LastNotifiedAt
		}

		if !warranty.ShouldNotify(settings, info, lastNotifiedAt, now) {
			continue
		}
		// The worker ticks hourly but notifications are per-day: the expiry
		// day fires regardless of frequency, so without this guard a product
		// expiring today would be emailed on every pass
		if lastNotifiedAt != nil && warranty.SameCalendarDay(*lastNotifiedAt, now) {
			continue
		}

		w.dispatch(account, settings, product, info, reminder, leadDays, now)
	}
}

// EnsureReminder runs the scheduling decision for a product and persists a
// reminder when one is due
func (w *ReminderWorker) EnsureReminder(product models.Product, leadDays int, now time.Time) {
	EnsureProductReminder(w.db, product, leadDays, now)
}

// EnsureProductReminder runs the scheduling decision for a product and
// persists a reminder when one is due. The product-create and
// product-update handlers call it too, so a product gets its reminder the
// moment its warranty dates are known rather than on the next worker pass.
// Re-running it is safe: an existing same-day reminder is reused, and
// reminder dates already in the past are skipped.
func EnsureProductReminder(db *gorm.DB, product models.Product, leadDays int, now time.Time) {
	var existingRows []models.Reminder
	if err := db.Where("product_id = ?", product.ID).Find(&existingRows).Error; err != nil {
		log.Printf("Failed to load reminders for product %d: %v", product.ID, err)
		return
	}

	existing := make([]warranty.ExistingReminder, 0, len(existingRows))
	for _, r := range existingRows {
		existing = append(existing, warranty.ExistingReminder{ID: r.ID, ReminderDate: r.ReminderDate})
	}

	decision, err := warranty.DecideReminder(warranty.ReminderInput{
		Username:        product.Username,
		ProductID:       product.ID,
		ProductName:     product.Name,
		WarrantyEndDate: product.WarrantyEndDate,
		LeadDays:        leadDays,
	}, existing, now)
	if err != nil {
		log.Printf("Reminder decision failed for product %d: %v", product.ID, err)
		return
	}

	if decision.Action != warranty.ActionCreate {
		return
	}

	reminder := models.Reminder{
		Username:     product.Username,
		ProductID:    product.ID,
		ReminderDate: decision.ReminderDate,
		LeadDays:     decision.LeadDays,
		Message:      decision.Message,
	}
	if err := db.Create(&reminder).Error; err != nil {
		log.Printf("Failed to create reminder for product %d: %v", product.ID, err)
	}
}

// latestReminder returns the most recently scheduled reminder for a product,
// or nil when none exists
func (w *ReminderWorker) latestReminder(productID uint) *models.Reminder {
	var reminder models.Reminder
	err := w.db.Where("product_id = ?", productID).
		Order("reminder_date DESC").
		First(&reminder).Error
	if err != nil {
		return nil
	}
	return &reminder
}

// dispatch sends the reminder email and records the send on the reminder
// row. Products that entered their notice window without a scheduled
// reminder (added late or already expired) get an anchor row dated today so
// repeat notifications have something to track against.
func (w *ReminderWorker) dispatch(account models.Account, settings warranty.Settings, product models.Product, info warranty.StatusInfo, reminder *models.Reminder, leadDays int, now time.Time) {
	if reminder == nil {
		message := warranty.ExpiredMessage(product.Name)
		if info.DaysLeft > 0 {
			message = warranty.ReminderMessage(product.Name, info.DaysLeft)
		}
		created := models.Reminder{
			Username:     product.Username,
			ProductID:    product.ID,
			ReminderDate: warranty.StartOfDay(now),
			LeadDays:     leadDays,
			Message:      message,
		}
		if err := w.db.Create(&created).Error; err != nil {
			log.Printf("Reminder worker: failed to create reminder for product %d: %v", product.ID, err)
			return
		}
		reminder = &created
	}

	toEmail := account.Email
	if !settings.UseAccountEmail && settings.NotificationEmail != "" {
		toEmail = settings.NotificationEmail
	}

	if err := w.emailService.SendWarrantyReminder(toEmail, account.Username, product, info.DaysLeft, reminder.Message); err != nil {
		log.Printf("Reminder worker: failed to send reminder for product %d to %s: %v", product.ID, toEmail, err)
		return
	}

	updates := map[string]interface{}{
		"is_sent":          true,
		"last_notified_at": now,
	}
	if reminder.SentAt == nil {
		updates["sent_at"] = now
	}
	if err := w.db.Model(&models.Reminder{}).Where("id = ?", reminder.ID).Updates(updates).Error; err != nil {
		log.Printf("Reminder worker: failed to record send for reminder %d: %v", reminder.ID, err)
		return
	}

	log.Printf("Sent warranty reminder for product %d (%s) to %s, %d days left", product.ID, product.Name, toEmail, info.DaysLeft)
}
