package database

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

var _ services.Directory = (*DirectoryStore)(nil)

type DirectoryStore struct {
	db *gorm.DB
}

func NewDirectoryStore(db *gorm.DB) *DirectoryStore {
	return &DirectoryStore{db: db}
}

// GetBranch returns the active branch of the tenant with its Tenant set.
// A branch of another tenant is reported as not found.
func (s *DirectoryStore) GetBranch(ctx context.Context, tenantSlug string, branchID uint) (*models.Branch, error) {
	db := s.db.WithContext(ctx)

	var tenant models.Tenant
	err := db.Where("slug = ?", tenantSlug).Take(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrBranchNotFound, "place %q not found", tenantSlug)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load tenant", err)
	}

	var branch models.Branch
	err = db.Where("id = ? AND tenant_id = ? AND active = ?", branchID, tenant.ID, true).Take(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrBranchNotFound, "branch %d of %q not found", branchID, tenantSlug)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load branch", err)
	}
	branch.Tenant = tenant
	return &branch, nil
}

// ResolveCustomer maps a customer token to its profile.
func (s *DirectoryStore) ResolveCustomer(ctx context.Context, token string) (*models.Customer, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "%v", err)
	}
	if claims.Role != models.RoleCustomer {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "token does not belong to a customer")
	}
	return s.CustomerByAccount(ctx, claims.AccountID)
}

func (s *DirectoryStore) CustomerByAccount(ctx context.Context, accountID uint) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Preload("Account").Where("account_id = ?", accountID).Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCustomerNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load customer", err)
	}
	return &customer, nil
}
