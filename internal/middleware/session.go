package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// SessionValidator resolves a signed session token to its claims.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.SessionClaims, error)
}

// Session protects routes by requiring a live session. The token is read
// from the session cookie, falling back to a Bearer authorization header.
func Session(validator SessionValidator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateSession(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by Session, if any.
func CurrentClaims(c *gin.Context) (*models.SessionClaims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.SessionClaims)
	return claims, ok && claims != nil
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
			return cookie
		}
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
