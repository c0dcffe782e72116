package middlewares

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

const requestContextKey = "requestContext"

// AccountLookup loads the account behind a token.
type AccountLookup interface {
	Account(ctx context.Context, id uint) (*models.Account, error)
}

// RequestScope resolves :place and :branch plus the authenticated caller
// into a services.RequestContext, once per request. Routes without auth
// get an anonymous actor.
func RequestScope(dir services.Directory, accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		branchID, err := strconv.ParseUint(c.Param("branch"), 10, 64)
		if err != nil {
			utils.RespondAppError(c, apperrors.New(apperrors.ErrBranchNotFound, "invalid branch id %q", c.Param("branch")))
			return
		}
		branch, err := dir.GetBranch(ctx, c.Param("place"), uint(branchID))
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}

		rc := services.RequestContext{Tenant: branch.Tenant, Branch: *branch}

		if accountID := c.GetUint(AccountIDKey); accountID != 0 {
			role := c.GetString(RoleKey)
			rc.Actor = services.Actor{AccountID: accountID, Role: role}

			if role == models.RoleCustomer {
				customer, err := dir.ResolveCustomer(ctx, c.GetString(TokenKey))
				if err != nil {
					utils.RespondAppError(c, err)
					return
				}
				rc.Actor.Customer = customer
			} else {
				account, err := accounts.Account(ctx, accountID)
				if err != nil {
					utils.RespondAppError(c, err)
					return
				}
				rc.Actor.Role = account.Role
				rc.Actor.TenantID = account.TenantID
			}
		}

		c.Set(requestContextKey, rc)
		c.Next()
	}
}

// Scope returns the context built by RequestScope.
func Scope(c *gin.Context) services.RequestContext {
	if v, ok := c.Get(requestContextKey); ok {
		if rc, ok := v.(services.RequestContext); ok {
			return rc
		}
	}
	return services.RequestContext{}
}
