package handlers

import (
	"fmt"
	"net/http"
	"time"

	"warrantly/internal/auth"
	"warrantly/internal/database"
	"warrantly/internal/models"
	"warrantly/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Login handles user authentication and issues JWT cookies
func Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid login request", err)
		return
	}

	// Find the account
	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", req.Username).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			handleError(c, http.StatusUnauthorized, "Invalid credentials", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Login attempt failed", err)
		return
	}

	// Verify the password
	if !account.VerifyPassword(req.Password) {
		handleError(c, http.StatusUnauthorized, "Invalid credentials",
			fmt.Errorf("password verification failed for user %s from %s", req.Username, utils.GetRealClientIP(c)))
		return
	}

	// Issue access and refresh tokens as cookies
	if err := auth.SetAuthCookies(c, account.Username, account.TokenVersion); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate tokens", err)
		return
	}

	// Update last login time
	db.Model(&account).Update("last_login", time.Now())

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user": gin.H{
			"username": account.Username,
			"email":    account.Email,
		},
	})
}

// Logout invalidates all outstanding tokens and clears the auth cookies
func Logout(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)

	if username != "" {
		db := database.GetDB()

		// Increment the token version to invalidate all existing tokens
		result := db.Model(&models.Account{}).
			Where("username = ?", username).
			Update("token_version", gorm.Expr("token_version + 1"))
		if result.Error != nil {
			handleError(c, http.StatusInternalServerError, "Logout failed", result.Error)
			return
		}
	}

	auth.ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

// GetCurrentUser returns the currently authenticated user
func GetCurrentUser(c *gin.Context) {
	username := auth.GetUsernameFromContext(c)
	if username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		handleError(c, http.StatusNotFound, "Account not found", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":   account.Username,
		"email":      account.Email,
		"avatar_url": account.AvatarURL,
	})
}

// RefreshTokenHandler exchanges a valid refresh-token cookie for a new
// access token
func RefreshTokenHandler(c *gin.Context) {
	refreshToken, err := c.Cookie(auth.RefreshTokenCookieName)
	if err != nil {
		handleError(c, http.StatusUnauthorized, "Refresh token required", err)
		return
	}

	claims, err := auth.ValidateToken(refreshToken)
	if err != nil {
		handleError(c, http.StatusUnauthorized, "Invalid refresh token", err)
		return
	}

	if claims.TokenType != auth.RefreshToken {
		handleError(c, http.StatusUnauthorized, "Invalid token type",
			fmt.Errorf("token type mismatch: expected refresh, got %s", claims.TokenType))
		return
	}

	// Reject refresh tokens minted before the account's current version
	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", claims.Username).First(&account).Error; err != nil {
		handleError(c, http.StatusUnauthorized, "Account not found", err)
		return
	}
	if claims.TokenVersion != account.TokenVersion {
		handleError(c, http.StatusUnauthorized, "Token has been revoked",
			fmt.Errorf("token version mismatch for user %s", claims.Username))
		return
	}

	accessToken, accessExpiry, err := auth.GenerateToken(account.Username, auth.AccessToken, account.TokenVersion)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	secure := gin.Mode() != gin.DebugMode
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.AccessTokenCookieName, accessToken, int(auth.AccessTokenExpiry.Seconds()), "/", "", secure, true)

	c.JSON(http.StatusOK, gin.H{
		"access_token_expires": accessExpiry,
	})
}

// GoogleLoginHandler redirects to Google OAuth login
func GoogleLoginHandler(c *gin.Context) {
	url, err := auth.GetLoginURL(c)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to generate login URL", err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallbackHandler processes the OAuth callback from Google
func GoogleCallbackHandler(c *gin.Context) {
	auth.HandleGoogleCallback(c)
}
