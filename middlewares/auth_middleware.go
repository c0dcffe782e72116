package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/utils"
)

// Keys set on the gin context by AuthMiddleware.
const (
	AccountIDKey   = "accountID"
	RoleKey        = "role"
	TokenKey       = "token"
	TokenExpiryKey = "tokenExpiry"
)

// AuthMiddleware requires a valid bearer token. With allowQuery the token
// may come from ?token= instead, for websocket clients that cannot set
// headers.
func AuthMiddleware(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" && allowQuery {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			utils.RespondAppError(c, apperrors.New(apperrors.ErrUnauthorized, "authorization token missing"))
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.RespondAppError(c, apperrors.New(apperrors.ErrUnauthorized, "%v", err))
			return
		}

		c.Set(AccountIDKey, claims.AccountID)
		c.Set(RoleKey, claims.Role)
		c.Set(TokenKey, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiryKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
