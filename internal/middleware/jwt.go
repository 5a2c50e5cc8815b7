package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meldings/meldings-api/internal/service"
	appErrors "github.com/meldings/meldings-api/pkg/errors"
	"github.com/meldings/meldings-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid access token. A missing header
// is 401, a bad or expired token is 403; both short-circuit before the
// handler. Clients send either "Bearer <token>" or the bare token.
func JWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrNoCredentials)
			c.Abort()
			return
		}

		token := header
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
