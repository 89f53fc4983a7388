package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/devscout-auth/internal/models"
	appErrors "github.com/noah-isme/devscout-auth/pkg/errors"
	"github.com/noah-isme/devscout-auth/pkg/response"
)

// RequireRoles enforces role-based access for routes behind the session gate.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrInvalidToken, "authentication required"))
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "administrator role required"))
			return
		}
		c.Next()
	}
}
