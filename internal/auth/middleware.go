package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"qayyim-backend/internal/apperr"
	"qayyim-backend/internal/models"
)

const (
	userKey   = "user"
	userIDKey = "userId"
)

// UserLoader resolves the user behind a token. The returned user must not
// carry the password hash.
type UserLoader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Protect requires a valid bearer token and stores the user on the context.
func Protect(tokens *Tokens, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Error(apperr.Unauthorized("Not authorized, no token"))
			c.Abort()
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		id, err := tokens.Parse(tokenStr)
		if err != nil {
			c.Error(apperr.Unauthorized("Not authorized, token failed"))
			c.Abort()
			return
		}
		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil || user == nil {
			c.Error(apperr.Unauthorized("Not authorized, token failed"))
			c.Abort()
			return
		}
		user.Password = ""

		c.Set(userKey, user)
		c.Set(userIDKey, user.ID.Hex())
		c.Next()
	}
}

// Admin must run after Protect.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			c.Error(apperr.Unauthorized("Not authorized as an admin"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Protect, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
