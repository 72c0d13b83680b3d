package models

import (
	"time"

	"warrantly/internal/warranty"
)

// NotificationSetting stores a user's saved notification preferences.
// A user with no row falls back to warranty.DefaultSettings; the row always
// holds fully-resolved values, merging happens when the user saves.
//
// The boolean columns carry no column defaults on purpose: GORM omits
// zero-valued fields with a default tag from the INSERT, so a first save of
// Enabled=false would be silently stored as true. Defaults live in
// warranty.DefaultSettings and are resolved before every save.
type NotificationSetting struct {
	ID                uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	Username          string             `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Enabled           bool               `gorm:"not null" json:"enabled"`
	UseAccountEmail   bool               `gorm:"not null" json:"use_account_email"`
	NotificationEmail string             `gorm:"size:255" json:"notification_email"`
	NotifyBefore      int                `gorm:"not null" json:"notify_before"`
	Frequency         warranty.Frequency `gorm:"size:10;not null" json:"frequency"`
	NotifyOnExpiry    bool               `gorm:"not null" json:"notify_on_expiry"`
	NotifyAfterExpiry bool               `gorm:"not null" json:"notify_after_expiry"`
	ReminderLeadDays  int                `gorm:"not null" json:"reminder_lead_days"`
	CreatedAt         time.Time          `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time          `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the NotificationSetting model
func (NotificationSetting) TableName() string {
	return "notification_setting"
}

// Resolved converts the stored row to the domain settings value
func (n *NotificationSetting) Resolved() warranty.Settings {
	if n == nil {
		return warranty.DefaultSettings()
	}
	s := warranty.Settings{
		Enabled:           n.Enabled,
		UseAccountEmail:   n.UseAccountEmail,
		NotificationEmail: n.NotificationEmail,
		NotifyBefore:      n.NotifyBefore,
		Frequency:         n.Frequency,
		NotifyOnExpiry:    n.NotifyOnExpiry,
		NotifyAfterExpiry: n.NotifyAfterExpiry,
	}
	if s.UseAccountEmail {
		s.NotificationEmail = ""
	}
	return s
}

// UpdateNotificationSettingsRequest is the PUT body for saving preferences.
// Absent fields keep their current (or default) values.
type UpdateNotificationSettingsRequest struct {
	Enabled           *bool               `json:"enabled"`
	UseAccountEmail   *bool               `json:"use_account_email"`
	NotificationEmail *string             `json:"notification_email" binding:"omitempty,email"`
	NotifyBefore      *int                `json:"notify_before"`
	Frequency         *warranty.Frequency `json:"frequency"`
	NotifyOnExpiry    *bool               `json:"notify_on_expiry"`
	NotifyAfterExpiry *bool               `json:"notify_after_expiry"`
	ReminderLeadDays  *int                `json:"reminder_lead_days" binding:"omitempty,min=1,max=90"`
}
