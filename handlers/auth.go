package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fira-backend/identity"
	"fira-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const userContextKey = "currentUser"

// UserLookup resolves identity-provider subjects to local user rows
type UserLookup interface {
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
}

// Authenticated resolves the Authorization bearer token through the
// identity provider and attaches the matching user to the request context.
func Authenticated(provider identity.Provider, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			abortUnauthorized(c, "MISSING_TOKEN", "Authorization bearer token required")
			return
		}

		subject, err := provider.Subject(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidToken) {
				abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired access token")
				return
			}
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "IDENTITY_PROVIDER_ERROR",
					"message": err.Error(),
				},
			})
			return
		}

		user, err := users.GetBySubject(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				abortUnauthorized(c, "UNKNOWN_USER", "No annotator account for this identity")
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_LOOKUP_FAILED",
					"message": err.Error(),
				},
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// AdminAuthenticated checks the X-Admin-Key header against the bcrypt hash
// configured at startup.
func AdminAuthenticated(adminKeyHash []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword(adminKeyHash, []byte(key)) != nil {
			abortUnauthorized(c, "INVALID_ADMIN_KEY", "Invalid admin key")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user attached by the Authenticated middleware
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(userContextKey)
	u, _ := user.(*models.User)
	return u
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
