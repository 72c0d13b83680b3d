package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"warrantly/internal/database"
	"warrantly/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// validatePassword checks if password meets security requirements
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	hasLetter := false
	hasNumber := false

	for _, char := range password {
		if unicode.IsLetter(char) {
			hasLetter = true
		} else if unicode.IsNumber(char) {
			hasNumber = true
		}

		if hasLetter && hasNumber {
			return nil
		}
	}

	return fmt.Errorf("password must contain at least one letter and one number")
}

// CreateAccount handles new user registration
func CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// Validate password strength
	if err := validatePassword(req.Password); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	account := models.Account{
		Username: req.Username,
		Email:    req.Email,
	}
	if err := account.SetPassword(req.Password); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	db := database.GetDB()
	if err := db.Create(&account).Error; err != nil {
		// Check for common database errors like duplicate usernames
		if strings.Contains(err.Error(), "duplicate key") {
			if strings.Contains(err.Error(), "username") {
				handleError(c, http.StatusConflict, "Username already exists", err)
			} else if strings.Contains(err.Error(), "email") {
				handleError(c, http.StatusConflict, "Email already in use", err)
			} else {
				handleError(c, http.StatusConflict, "Account creation failed: duplicate data", err)
			}
			return
		}

		handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccount retrieves account information. Users can only read their own
// account.
func GetAccount(c *gin.Context) {
	username := c.Param("username")

	if username != c.GetString("username") {
		handleError(c, http.StatusForbidden, "Cannot access another user's account",
			fmt.Errorf("user %s requested account %s", c.GetString("username"), username))
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Preload("Products").
		Where("username = ?", username).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, account)
}
