package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/models"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

// RequireRoles admits only sessions whose role is listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, permitted := allowed[claims.Role]; !permitted {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "requires role "+rolesLabel(roles)))
			c.Abort()
			return
		}
		c.Next()
	}
}

func rolesLabel(roles []models.UserRole) string {
	label := ""
	for i, r := range roles {
		if i > 0 {
			label += " or "
		}
		label += string(r)
	}
	return label
}
