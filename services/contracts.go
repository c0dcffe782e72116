package services

import (
	"context"

	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
)

// Catalog is the read-only menu source. Implementations return
// apperrors.ErrItemNotFound for missing items.
type Catalog interface {
	GetFoodItem(ctx context.Context, branchID uint, slugOrID string) (*models.FoodItem, error)
	ListOptionGroups(ctx context.Context, foodItemID uint) ([]models.OptionGroup, error)
	ListMenu(ctx context.Context, branchID uint, category string) ([]models.FoodItem, error)
}

// Directory resolves tenants, branches and customers.
type Directory interface {
	// GetBranch returns an active branch of the tenant with its Tenant loaded.
	GetBranch(ctx context.Context, tenantSlug string, branchID uint) (*models.Branch, error)
	ResolveCustomer(ctx context.Context, token string) (*models.Customer, error)
}

// FeeSource picks the fee schedule of a tenant.
type FeeSource interface {
	For(tenantSlug string) pricing.FeeSchedule
}

// Notifier receives order events after they are committed.
type Notifier interface {
	OrderPlaced(order *models.Order)
	OrderChanged(order *models.Order, from models.OrderStatus)
	OrderCanceled(order *models.Order)
}

type NopNotifier struct{}

func (NopNotifier) OrderPlaced(*models.Order)                      {}
func (NopNotifier) OrderChanged(*models.Order, models.OrderStatus) {}
func (NopNotifier) OrderCanceled(*models.Order)                    {}
