package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/trackmate-dev/trackmate-api/pkg/errors"
	"github.com/trackmate-dev/trackmate-api/pkg/response"
)

// RequireAdmin rejects requests whose token does not carry the admin role.
// Services re-check the privilege; this gate just fails fast at the router.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !claims.Role.IsAdmin() {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "admin privilege required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
