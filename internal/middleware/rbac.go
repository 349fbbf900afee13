package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
	"github.com/noah-isme/sma-score-portal/pkg/response"
)

// RequireRoles rejects requests whose token carries none of the given roles.
// SUPERADMIN passes every check.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
