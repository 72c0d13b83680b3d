package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenType distinguishes short-lived access tokens from refresh tokens
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const (
	AccessTokenCookieName  = "warrantly_token"
	RefreshTokenCookieName = "warrantly_refresh"

	AccessTokenExpiry  = time.Hour
	RefreshTokenExpiry = time.Hour * 24 * 30
)

// TokenClaims represents the claims in the JWT token
type TokenClaims struct {
	Username     string    `json:"username"`
	TokenType    TokenType `json:"token_type"`
	TokenVersion int       `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateToken creates a new JWT token for a user. The token carries the
// account's current token version, so incrementing the version on logout
// invalidates every token issued before it.
func GenerateToken(username string, tokenType TokenType, tokenVersion int) (string, time.Time, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return "", time.Time{}, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	expiry := AccessTokenExpiry
	if tokenType == RefreshToken {
		expiry = RefreshTokenExpiry
	}
	expiresAt := time.Now().Add(expiry)

	claims := TokenClaims{
		Username:     username,
		TokenType:    tokenType,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "warrantly",
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// ValidateToken validates and parses a JWT token
func ValidateToken(tokenString string) (*TokenClaims, error) {
	secretKey := os.Getenv("JWT_SECRET")
	if secretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// SetAuthCookies issues a fresh access/refresh token pair as secure
// HttpOnly cookies
func SetAuthCookies(c *gin.Context, username string, tokenVersion int) error {
	accessToken, _, err := GenerateToken(username, AccessToken, tokenVersion)
	if err != nil {
		return err
	}
	refreshToken, _, err := GenerateToken(username, RefreshToken, tokenVersion)
	if err != nil {
		return err
	}

	secure := gin.Mode() != gin.DebugMode
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessTokenCookieName, accessToken, int(AccessTokenExpiry.Seconds()), "/", "", secure, true)
	c.SetCookie(RefreshTokenCookieName, refreshToken, int(RefreshTokenExpiry.Seconds()), "/auth/refresh", "", secure, true)
	return nil
}

// ClearAuthCookies removes both auth cookies
func ClearAuthCookies(c *gin.Context) {
	c.SetCookie(AccessTokenCookieName, "", -1, "/", "", false, true)
	c.SetCookie(RefreshTokenCookieName, "", -1, "/auth/refresh", "", false, true)
}

// GetUsernameFromContext returns the authenticated username, or "" when the
// request was not authenticated
func GetUsernameFromContext(c *gin.Context) string {
	return c.GetString("username")
}
