package auth

import (
	"net/http"

	"warrantly/internal/database"
	"warrantly/internal/models"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the access-token cookie and loads the owning
// account. Tokens minted before the account's current token version are
// rejected, which is how logout invalidates outstanding tokens.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(AccessTokenCookieName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		if claims.TokenType != AccessToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token type"})
			c.Abort()
			return
		}

		// Check the token version against the account
		db := database.GetDB()
		var account models.Account
		if err := db.Where("username = ?", claims.Username).First(&account).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			c.Abort()
			return
		}

		if claims.TokenVersion != account.TokenVersion {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token has been revoked, please log in again"})
			c.Abort()
			return
		}

		// Store user info in context for handlers to use
		c.Set("username", account.Username)
		c.Set("email", account.Email)

		c.Next()
	}
}
