package handlers

import (
	"fmt"
	"net/http"

	"warrantly/internal/database"
	"warrantly/internal/models"
	"warrantly/internal/warranty"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// settingsResponse is the JSON shape for notification settings
type settingsResponse struct {
	warranty.Settings
	ReminderLeadDays int `json:"reminder_lead_days"`
}

// GetNotificationSettings returns the user's notification settings, merged
// with defaults when the user never saved any
func GetNotificationSettings(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	var row models.NotificationSetting
	err := db.Where("username = ?", username).First(&row).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			handleError(c, http.StatusInternalServerError, "Failed to fetch settings", err)
			return
		}
		c.JSON(http.StatusOK, settingsResponse{
			Settings:         warranty.DefaultSettings(),
			ReminderLeadDays: warranty.DefaultLeadDays,
		})
		return
	}

	c.JSON(http.StatusOK, settingsResponse{
		Settings:         row.Resolved(),
		ReminderLeadDays: row.ReminderLeadDays,
	})
}

// UpdateNotificationSettings saves notification preferences. Fields absent
// from the request keep their current values; a first-time save starts from
// the defaults.
func UpdateNotificationSettings(c *gin.Context) {
	username := c.GetString("username")

	var req models.UpdateNotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	if req.NotifyBefore != nil && !warranty.ValidNotifyBefore(*req.NotifyBefore) {
		handleError(c, http.StatusBadRequest,
			fmt.Sprintf("notify_before must be one of %v", warranty.NotifyBeforeOptions),
			fmt.Errorf("invalid notify_before %d", *req.NotifyBefore))
		return
	}
	if req.Frequency != nil && !warranty.ValidFrequency(*req.Frequency) {
		handleError(c, http.StatusBadRequest, "frequency must be once, daily or weekly",
			fmt.Errorf("invalid frequency %q", *req.Frequency))
		return
	}

	db := database.GetDB()

	var row models.NotificationSetting
	err := db.Where("username = ?", username).First(&row).Error
	exists := err == nil
	if err != nil && err != gorm.ErrRecordNotFound {
		handleError(c, http.StatusInternalServerError, "Failed to fetch settings", err)
		return
	}

	// Start from the stored values (or defaults), then layer the request on top
	patch := &warranty.SettingsPatch{}
	if exists {
		patch = &warranty.SettingsPatch{
			Enabled:           &row.Enabled,
			UseAccountEmail:   &row.UseAccountEmail,
			NotificationEmail: &row.NotificationEmail,
			NotifyBefore:      &row.NotifyBefore,
			Frequency:         &row.Frequency,
			NotifyOnExpiry:    &row.NotifyOnExpiry,
			NotifyAfterExpiry: &row.NotifyAfterExpiry,
		}
	}
	if req.Enabled != nil {
		patch.Enabled = req.Enabled
	}
	if req.UseAccountEmail != nil {
		patch.UseAccountEmail = req.UseAccountEmail
	}
	if req.NotificationEmail != nil {
		patch.NotificationEmail = req.NotificationEmail
	}
	if req.NotifyBefore != nil {
		patch.NotifyBefore = req.NotifyBefore
	}
	if req.Frequency != nil {
		patch.Frequency = req.Frequency
	}
	if req.NotifyOnExpiry != nil {
		patch.NotifyOnExpiry = req.NotifyOnExpiry
	}
	if req.NotifyAfterExpiry != nil {
		patch.NotifyAfterExpiry = req.NotifyAfterExpiry
	}

	resolved := warranty.ResolveSettings(patch)

	// An override address only makes sense with the account email disabled
	if req.NotificationEmail != nil && *req.NotificationEmail != "" && resolved.UseAccountEmail {
		handleError(c, http.StatusBadRequest, "Disable use_account_email to set an override address",
			fmt.Errorf("notification_email set while use_account_email is true"))
		return
	}

	leadDays := row.ReminderLeadDays
	if !exists {
		leadDays = warranty.DefaultLeadDays
	}
	if req.ReminderLeadDays != nil {
		leadDays = *req.ReminderLeadDays
	}

	row.Username = username
	row.Enabled = resolved.Enabled
	row.UseAccountEmail = resolved.UseAccountEmail
	row.NotificationEmail = resolved.NotificationEmail
	row.NotifyBefore = resolved.NotifyBefore
	row.Frequency = resolved.Frequency
	row.NotifyOnExpiry = resolved.NotifyOnExpiry
	row.NotifyAfterExpiry = resolved.NotifyAfterExpiry
	row.ReminderLeadDays = leadDays

	if err := db.Save(&row).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save settings", err)
		return
	}

	c.JSON(http.StatusOK, settingsResponse{
		Settings:         resolved,
		ReminderLeadDays: leadDays,
	})
}
