package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"warrantly/internal/database"
	"warrantly/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetReminders lists the authenticated user's reminders, newest scheduled
// first. ?unread=true narrows to unacknowledged ones.
func GetReminders(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	query := db.Where("username = ?", username)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var reminders []models.Reminder
	if err := query.Order("reminder_date DESC").Find(&reminders).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminders", err)
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// MarkReminderRead marks a reminder as acknowledged in the UI. Read state
// is independent of whether the reminder email was sent.
func MarkReminderRead(c *gin.Context) {
	username := c.GetString("username")

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid reminder id", err)
		return
	}

	db := database.GetDB()
	result := db.Model(&models.Reminder{}).
		Where("id = ? AND username = ?", id, username).
		Update("is_read", true)
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update reminder", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		handleError(c, http.StatusNotFound, "Reminder not found", gorm.ErrRecordNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("reminder %d marked as read", id)})
}
