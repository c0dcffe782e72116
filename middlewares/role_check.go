package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/utils"
)

// RequireRole rejects tokens whose role is not listed. Tenant membership
// is checked later by the services.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if !allowed[role] {
			utils.RespondAppError(c, apperrors.New(apperrors.ErrUnauthorized, "role %q may not access this resource", role))
			return
		}
		c.Next()
	}
}
