package services

import (
	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	AccountID uint
	Role      string
	TenantID  *uint
	// Customer is set only for customer accounts.
	Customer *models.Customer
}

// RequestContext is resolved once per request and handed to every service
// call; services never look the tenant, branch or caller up themselves.
type RequestContext struct {
	Tenant models.Tenant
	Branch models.Branch
	Actor  Actor
}

func (rc RequestContext) customer() (*models.Customer, error) {
	if rc.Actor.Customer == nil || rc.Actor.Customer.ID == 0 {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "a customer account is required")
	}
	return rc.Actor.Customer, nil
}

// StaffOfTenant reports whether the actor may manage orders of the tenant.
func (rc RequestContext) StaffOfTenant() error {
	acct := models.Account{Role: rc.Actor.Role, TenantID: rc.Actor.TenantID}
	if !acct.IsStaffOf(rc.Tenant.ID) {
		return apperrors.New(apperrors.ErrUnauthorized, "staff access to %s required", rc.Tenant.Slug)
	}
	return nil
}
