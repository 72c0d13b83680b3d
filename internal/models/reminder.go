package models

import "time"

// Reminder is a scheduled notice for one product's impending or past
// warranty expiry. Creating a reminder is distinct from dispatching it:
// IsSent/SentAt track the first email dispatch, LastNotifiedAt tracks the
// most recent one (repeat notifications under daily/weekly frequency), and
// IsRead tracks user acknowledgement in the UI.
//
// The unique index enforces at most one reminder per user, product and
// calendar day; the scheduling decision reuses the existing row instead of
// creating a duplicate.
type Reminder struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string     `gorm:"size:30;not null;uniqueIndex:idx_reminder_per_day" json:"username"`
	ProductID      uint       `gorm:"not null;uniqueIndex:idx_reminder_per_day;index" json:"product_id"`
	ReminderDate   time.Time  `gorm:"not null;uniqueIndex:idx_reminder_per_day" json:"reminder_date"`
	LeadDays       int        `gorm:"not null" json:"lead_days"`
	Message        string     `gorm:"size:255;not null" json:"message"`
	IsRead         bool       `gorm:"not null;default:false" json:"is_read"`
	IsSent         bool       `gorm:"not null;default:false" json:"is_sent"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminder"
}
