package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"warrantly/internal/database"
	"warrantly/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const (
	// StateCookieName is the name of the cookie that temporarily stores the OAuth state
	StateCookieName = "warrantly_oauth_state"
	// StateLength is the length of the random state string in bytes
	StateLength = 32
)

var googleOAuthConfig *oauth2.Config

// UserInfo represents the user information carried in a verified Google ID token
type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// InitOAuth initializes the Google OAuth configuration
func InitOAuth() error {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REDIRECT_URL must be set")
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile", "openid"},
		Endpoint:     google.Endpoint,
	}

	return nil
}

// GenerateRandomString creates a cryptographically secure random string
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// GetLoginURL returns the Google OAuth login URL with a secure state parameter
func GetLoginURL(c *gin.Context) (string, error) {
	if googleOAuthConfig == nil {
		return "", fmt.Errorf("google sign-in is not configured")
	}

	state, err := setOAuthState(c)
	if err != nil {
		return "", err
	}

	return googleOAuthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	), nil
}

// HandleGoogleCallback processes the OAuth callback from Google. A verified
// ID token resolves to an account (created on first sign-in) and ends in the
// same JWT cookies password login issues.
func HandleGoogleCallback(c *gin.Context) {
	if googleOAuthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sign-in is not configured"})
		return
	}

	// Verify state parameter (CSRF protection)
	state := c.Query("state")
	if !verifyOAuthState(c, state) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state, possible CSRF attack"})
		return
	}

	// Exchange auth code for token
	code := c.Query("code")
	token, err := googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code exchange failed"})
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get id_token"})
		return
	}

	payload, err := verifyIDToken(rawIDToken, googleOAuthConfig.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to verify id_token: %v", err)})
		return
	}

	userInfo := extractUserInfoFromPayload(payload)

	db := database.GetDB()
	var account models.Account
	err = db.Where("google_id = ?", userInfo.Sub).First(&account).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up account"})
			return
		}
		// First sign-in: create an account from the Google profile
		account, err = createGoogleAccount(db, userInfo)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
			return
		}
	}

	db.Model(&account).Update("last_login", time.Now())

	if err := SetAuthCookies(c, account.Username, account.TokenVersion); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "/"
	}
	c.Redirect(http.StatusTemporaryRedirect, frontend)
}

// createGoogleAccount builds an account from a verified Google profile,
// deriving a username from the email local part
func createGoogleAccount(db *gorm.DB, userInfo *UserInfo) (models.Account, error) {
	base := strings.SplitN(userInfo.Email, "@", 2)[0]
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) > 22 {
		base = base[:22]
	}
	if base == "" {
		base = "user"
	}

	username := base
	for attempt := 0; attempt < 5; attempt++ {
		var count int64
		db.Model(&models.Account{}).Where("username = ?", username).Count(&count)
		if count == 0 {
			break
		}
		suffix, err := GenerateRandomString(6)
		if err != nil {
			suffix = fmt.Sprintf("%d", time.Now().UnixNano()%1000000)
		}
		username = fmt.Sprintf("%s%s", base, strings.ToLower(suffix))
	}

	account := models.Account{
		Username:      username,
		Email:         userInfo.Email,
		GoogleID:      userInfo.Sub,
		EmailVerified: userInfo.EmailVerified,
		AvatarURL:     userInfo.Picture,
	}
	if err := db.Create(&account).Error; err != nil {
		return models.Account{}, err
	}
	return account, nil
}

// verifyIDToken verifies the ID token using Google's official library
func verifyIDToken(idToken string, audience string) (*idtoken.Payload, error) {
	payload, err := idtoken.Validate(context.Background(), idToken, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return payload, nil
}

// extractUserInfoFromPayload extracts user info from the verified token payload
func extractUserInfoFromPayload(payload *idtoken.Payload) *UserInfo {
	userInfo := &UserInfo{Sub: payload.Subject}

	if email, ok := payload.Claims["email"].(string); ok {
		userInfo.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		userInfo.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		userInfo.Picture = picture
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok {
		userInfo.EmailVerified = emailVerified
	}

	return userInfo
}

// setOAuthState generates and stores a random state for CSRF protection
func setOAuthState(c *gin.Context) (string, error) {
	state, err := GenerateRandomString(StateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	// Store state in a temporary cookie, cleared after the OAuth flow
	secure := gin.Mode() != gin.DebugMode
	c.SetCookie(StateCookieName, state, int(10*time.Minute.Seconds()), "/", "", secure, true)

	return state, nil
}

// verifyOAuthState verifies the state parameter from the OAuth callback
func verifyOAuthState(c *gin.Context, receivedState string) bool {
	savedState, err := c.Cookie(StateCookieName)
	if err != nil {
		return false
	}

	// Clear the state cookie regardless of outcome
	c.SetCookie(StateCookieName, "", -1, "/", "", false, true)

	return savedState != "" && savedState == receivedState
}
