package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/metrics"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/statemachine"
	"github.com/yeremiapane/shagomeals/utils"
)

var errStatusMoved = errors.New("order status changed since read")

// OrderFilter narrows a staff order listing. Zero values match everything.
type OrderFilter struct {
	Status   models.OrderStatus
	Canceled *bool
	Limit    int
}

// OrderStats never counts canceled orders as active or completed.
type OrderStats struct {
	Pending          int64           `json:"pending"`
	Active           int64           `json:"active"`
	Completed        int64           `json:"completed"`
	Canceled         int64           `json:"canceled"`
	CompletedRevenue decimal.Decimal `json:"completed_revenue"`
}

type OrderService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewOrderService(db *gorm.DB, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{db: db, notifier: notifier}
}

// Get returns an order of the request branch for its staff.
func (s *OrderService) Get(ctx context.Context, rc RequestContext, code string) (*models.Order, error) {
	if err := rc.StaffOfTenant(); err != nil {
		return nil, err
	}
	return loadOrder(s.db.WithContext(ctx), "code = ? AND branch_id = ?", code, rc.Branch.ID)
}

func (s *OrderService) List(ctx context.Context, rc RequestContext, filter OrderFilter) ([]models.Order, error) {
	if err := rc.StaffOfTenant(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("branch_id = ?", rc.Branch.ID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Canceled != nil {
		q = q.Where("canceled = ?", *filter.Canceled)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return findOrders(q)
}

// ListForCustomer is the caller's order history with the request tenant.
func (s *OrderService) ListForCustomer(ctx context.Context, rc RequestContext) ([]models.Order, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Where("customer_id = ? AND tenant_id = ?", customer.ID, rc.Tenant.ID)
	return findOrders(q)
}

func (s *OrderService) GetForCustomer(ctx context.Context, rc RequestContext, code string) (*models.Order, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}
	return loadOrder(s.db.WithContext(ctx), "code = ? AND customer_id = ? AND tenant_id = ?", code, customer.ID, rc.Tenant.ID)
}

// AdvanceStatus moves the order along the state machine. Asking for the
// current status again succeeds without writing. The write is conditioned
// on the status read, so of two racing staff requests only one applies.
func (s *OrderService) AdvanceStatus(ctx context.Context, rc RequestContext, code string, to models.OrderStatus) (*models.Order, error) {
	if err := rc.StaffOfTenant(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	order, err := s.find(db, rc, code)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := statemachine.CanTransition(from, to); err != nil {
		return nil, err
	}
	if from == to {
		return loadOrder(db, "id = ?", order.ID)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		}
		if to == models.StatusCanceled {
			updates["canceled"] = true
		}

		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(updates)
		if res.Error != nil {
			return apperrors.Internal("failed to update order status", res.Error)
		}
		if res.RowsAffected == 0 {
			return errStatusMoved
		}

		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  rc.Actor.AccountID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Internal("failed to record status history", err)
		}
		return nil
	})
	if errors.Is(err, errStatusMoved) {
		current, lerr := loadOrder(db, "id = ?", order.ID)
		if lerr != nil {
			return nil, lerr
		}
		if current.Status == to {
			return current, nil
		}
		return nil, apperrors.New(apperrors.ErrConcurrentUpdate, "order %s moved to %s concurrently", code, current.Status)
	}
	if err != nil {
		return nil, err
	}

	updated, err := loadOrder(db, "id = ?", order.ID)
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant": rc.Tenant.Slug,
		"branch": rc.Branch.ID,
		"order":  code,
		"from":   from,
		"to":     to,
	}).Info("order status changed")

	if to == models.StatusCanceled {
		s.notifier.OrderCanceled(updated)
	} else {
		s.notifier.OrderChanged(updated, from)
	}
	return updated, nil
}

// Cancel is AdvanceStatus to canceled.
func (s *OrderService) Cancel(ctx context.Context, rc RequestContext, code string) (*models.Order, error) {
	return s.AdvanceStatus(ctx, rc, code, models.StatusCanceled)
}

// SetPaymentStatus flips the payment flag. A canceled order cannot become
// paid; marking one unpaid is allowed.
func (s *OrderService) SetPaymentStatus(ctx context.Context, rc RequestContext, code string, paid bool, ref *string) (*models.Order, error) {
	if err := rc.StaffOfTenant(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	order, err := s.find(db, rc, code)
	if err != nil {
		return nil, err
	}
	if paid && order.Canceled {
		return nil, apperrors.New(apperrors.ErrOrderCanceled, "order %s is canceled and cannot be paid", code)
	}

	updates := map[string]interface{}{
		"payment_status": paid,
		"updated_at":     time.Now(),
	}
	if ref != nil {
		updates["payment_ref"] = *ref
	}

	q := db.Model(&models.Order{}).Where("id = ?", order.ID)
	if paid {
		q = q.Where("canceled = ?", false)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Internal("failed to update payment status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.ErrOrderCanceled, "order %s was canceled concurrently", code)
	}

	updated, err := loadOrder(db, "id = ?", order.ID)
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant": rc.Tenant.Slug,
		"order":  code,
		"paid":   paid,
	}).Info("order payment status changed")
	s.notifier.OrderChanged(updated, updated.Status)
	return updated, nil
}

// Stats summarises the orders of the request branch.
func (s *OrderService) Stats(ctx context.Context, rc RequestContext) (*OrderStats, error) {
	if err := rc.StaffOfTenant(); err != nil {
		return nil, err
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Order{}).Where("branch_id = ?", rc.Branch.ID)
	}
	active := []models.OrderStatus{
		models.StatusPending,
		models.StatusConfirmed,
		models.StatusReady,
		models.StatusOnRoute,
	}

	var stats OrderStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Pending, base().Where("status = ? AND canceled = ?", models.StatusPending, false)},
		{&stats.Active, base().Where("status IN ? AND canceled = ?", active, false)},
		{&stats.Completed, base().Where("status = ? AND canceled = ?", models.StatusDelivered, false)},
		{&stats.Canceled, base().Where("canceled = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, apperrors.Internal("failed to count orders", err)
		}
	}

	// summed here rather than in SQL so no driver turns money into floats
	var totals []decimal.Decimal
	err := base().Where("status = ? AND canceled = ?", models.StatusDelivered, false).Pluck("total", &totals).Error
	if err != nil {
		return nil, apperrors.Internal("failed to load order totals", err)
	}
	stats.CompletedRevenue = decimal.Sum(decimal.Zero, totals...)
	return &stats, nil
}

func (s *OrderService) find(db *gorm.DB, rc RequestContext, code string) (*models.Order, error) {
	var order models.Order
	err := db.Where("code = ? AND branch_id = ?", code, rc.Branch.ID).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrOrderNotFound, "order %s not found", code)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}
	return &order, nil
}

func findOrders(q *gorm.DB) ([]models.Order, error) {
	var orders []models.Order
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Selections").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list orders", err)
	}
	return orders, nil
}
