package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/meldings/meldings-api/internal/models"
	appErrors "github.com/meldings/meldings-api/pkg/errors"
	"github.com/meldings/meldings-api/pkg/response"
)

// RequireRoles declares the role policy for a route at registration time.
// It runs after JWT and rejects callers whose claims carry none of the
// allowed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrNoCredentials)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
