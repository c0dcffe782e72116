package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/metrics"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
	"github.com/yeremiapane/shagomeals/utils"
)

const defaultOrderCodeRetries = 5

// CheckoutSummary is the live pricing of a cart before it is placed.
type CheckoutSummary struct {
	Lines  []CartLine     `json:"items"`
	Totals pricing.Totals `json:"totals"`
}

// PlaceOrderInput carries the delivery and payment details of a checkout.
type PlaceOrderInput struct {
	DeliveryOption    models.DeliveryOption
	PickupTime        *time.Time
	DeliveryAddressID *uint
	PaymentRef        *string
	Invoice           *string
	Source            string
}

type CheckoutService struct {
	db       *gorm.DB
	fees     FeeSource
	notifier Notifier
	retries  int
	newCode  func() (string, error)
}

func NewCheckoutService(db *gorm.DB, fees FeeSource, notifier Notifier, retries int) *CheckoutService {
	if retries < 1 {
		retries = defaultOrderCodeRetries
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CheckoutService{
		db:       db,
		fees:     fees,
		notifier: notifier,
		retries:  retries,
		newCode:  NewOrderCode,
	}
}

// WithCodeGenerator swaps the order code source.
func (s *CheckoutService) WithCodeGenerator(gen func() (string, error)) *CheckoutService {
	s.newCode = gen
	return s
}

// NewOrderCode returns 4 random bytes as 8 upper-case hex characters.
func NewOrderCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// GetTotals prices the caller's cart with the tenant fee schedule.
func (s *CheckoutService) GetTotals(ctx context.Context, rc RequestContext) (*CheckoutSummary, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	cart, err := getOrCreateCart(db, customer.ID, rc.Branch.ID)
	if err != nil {
		return nil, err
	}
	items, err := loadLines(db, "cart_id = ?", cart.ID, "id DESC")
	if err != nil {
		return nil, err
	}

	lines, _, err := PriceLines(items)
	if err != nil {
		return nil, err
	}
	totals, err := s.fees.For(rc.Tenant.Slug).Totals(pricingLines(items))
	if err != nil {
		return nil, err
	}
	return &CheckoutSummary{Lines: lines, Totals: totals}, nil
}

// PlaceOrder moves every line of the caller's cart into a new pending order,
// freezing prices, names and fees. The cart is locked for the whole move so
// a concurrent add lands either before the snapshot or in the emptied cart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, rc RequestContext, in PlaceOrderInput) (*models.Order, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}

	if err := validateLengths(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.validateDelivery(db, customer.ID, &in); err != nil {
		return nil, err
	}
	schedule := s.fees.For(rc.Tenant.Slug)
	if err := schedule.Validate(); err != nil {
		return nil, apperrors.Internal("invalid fee schedule for "+rc.Tenant.Slug, err)
	}

	order := &models.Order{
		TenantID:          rc.Tenant.ID,
		BranchID:          rc.Branch.ID,
		CustomerID:        customer.ID,
		Source:            in.Source,
		DeliveryOption:    in.DeliveryOption,
		PickupTime:        in.PickupTime,
		DeliveryAddressID: in.DeliveryAddressID,
		PaymentRef:        in.PaymentRef,
		Invoice:           in.Invoice,
		PaymentStatus:     in.PaymentRef != nil && *in.PaymentRef != "",
		Status:            models.StatusPending,
	}
	if order.Source == "" {
		order.Source = models.DefaultOrderSource
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		cart, items, err := snapshotCart(tx, customer.ID, rc.Branch.ID)
		if err != nil {
			return err
		}

		totals, err := schedule.Totals(pricingLines(items))
		if err != nil {
			return err
		}
		order.Subtotal = totals.Subtotal
		order.DeliveryFee = totals.Fee(pricing.FeeDelivery)
		order.VAT = totals.Fee(pricing.FeeVAT)
		order.ProcessingFee = totals.Fee(pricing.FeeProcessing)
		order.Total = totals.Total

		if err := s.insertWithUniqueCode(tx, order); err != nil {
			return err
		}
		if err := freezeLines(tx, order.ID, items); err != nil {
			return err
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: rc.Actor.AccountID,
			Note:      "order placed",
		}
		if err := tx.Create(&history).Error; err != nil {
			return apperrors.Internal("failed to record status history", err)
		}
		return touchCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	placed, err := loadOrder(db, "id = ?", order.ID)
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues(rc.Tenant.Slug).Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant": rc.Tenant.Slug,
		"branch": rc.Branch.ID,
		"order":  placed.Code,
		"lines":  len(placed.Items),
		"total":  utils.FormatMoney(placed.Total),
	}).Info("order placed")
	s.notifier.OrderPlaced(placed)
	return placed, nil
}

func validateLengths(in PlaceOrderInput) error {
	fields := []struct {
		name  string
		value *string
		max   int
	}{
		{"source", &in.Source, models.MaxOrderSourceLen},
		{"payment_ref", in.PaymentRef, models.MaxPaymentRefLen},
		{"invoice", in.Invoice, models.MaxPaymentRefLen},
	}
	for _, f := range fields {
		if f.value != nil && utf8.RuneCountInString(*f.value) > f.max {
			return apperrors.New(apperrors.ErrFieldTooLong, "%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}

func (s *CheckoutService) validateDelivery(db *gorm.DB, customerID uint, in *PlaceOrderInput) error {
	switch in.DeliveryOption {
	case models.DeliveryOptionPickup:
		if in.PickupTime == nil {
			return apperrors.New(apperrors.ErrMissingDelivery, "pickup orders need a pickup time")
		}
		in.DeliveryAddressID = nil
	case models.DeliveryOptionDelivery:
		if in.DeliveryAddressID == nil {
			return apperrors.New(apperrors.ErrMissingDelivery, "delivery orders need a delivery address")
		}
		in.PickupTime = nil

		var n int64
		err := db.Model(&models.ShippingAddress{}).
			Where("id = ? AND customer_id = ?", *in.DeliveryAddressID, customerID).
			Count(&n).Error
		if err != nil {
			return apperrors.Internal("failed to check delivery address", err)
		}
		if n == 0 {
			return apperrors.New(apperrors.ErrAddressNotFound, "delivery address %d not found", *in.DeliveryAddressID)
		}
	default:
		return apperrors.New(apperrors.ErrInvalidDeliveryOption, "unknown delivery option %q", in.DeliveryOption)
	}
	return nil
}

// insertWithUniqueCode retries code generation on a uniqueness violation,
// rolling back to a savepoint so the surrounding transaction stays usable.
func (s *CheckoutService) insertWithUniqueCode(tx *gorm.DB, order *models.Order) error {
	const savepoint = "order_code"

	for attempt := 1; attempt <= s.retries; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return apperrors.Internal("failed to generate order id", err)
		}
		order.ID = 0
		order.Code = code

		if err := tx.SavePoint(savepoint).Error; err != nil {
			return apperrors.Internal("failed to create savepoint", err)
		}
		err = tx.Omit(clause.Associations).Create(order).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Internal("failed to create order", err)
		}
		if err := tx.RollbackTo(savepoint).Error; err != nil {
			return apperrors.Internal("failed to roll back savepoint", err)
		}

		metrics.OrderIDCollisions.Inc()
		utils.InfoLogger.WithFields(logrus.Fields{
			"code":    code,
			"attempt": attempt,
		}).Warn("order id collision")
	}
	return apperrors.New(apperrors.ErrOrderIDCollision, "no unique order id after %d attempts", s.retries)
}

// snapshotCart locks the cart and reads its lines. The lock is held until
// the transaction ends, and freezeLines then moves every line to the order,
// which leaves the cart empty.
func snapshotCart(tx *gorm.DB, customerID, branchID uint) (*models.Cart, []models.LineItem, error) {
	cart, err := lockCart(tx, customerID, branchID, false)
	if errors.Is(err, apperrors.ErrCartNotFound) {
		return nil, nil, apperrors.ErrEmptyCart
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := loadLines(tx, "cart_id = ?", cart.ID, "id")
	if err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, apperrors.ErrEmptyCart
	}
	return cart, items, nil
}

// freezeLines transfers lines from the cart to the order and stores the
// prices and names they were sold at.
func freezeLines(tx *gorm.DB, orderID uint, items []models.LineItem) error {
	for i := range items {
		it := &items[i]
		err := tx.Model(&models.LineItem{}).Where("id = ?", it.ID).Updates(map[string]interface{}{
			"cart_id":    nil,
			"order_id":   orderID,
			"unit_price": decimal.NewNullDecimal(it.FoodItem.Price),
			"item_name":  it.FoodItem.Name,
			"updated_at": time.Now(),
		}).Error
		if err != nil {
			return apperrors.Internal("failed to move line item to order", err)
		}

		for j := range it.Selections {
			sel := &it.Selections[j]
			err := tx.Model(&models.LineItemSelection{}).Where("id = ?", sel.ID).Updates(map[string]interface{}{
				"price_delta": decimal.NewNullDecimal(sel.Choice.PriceDelta),
				"choice_name": sel.Choice.Name,
			}).Error
			if err != nil {
				return apperrors.Internal("failed to freeze selection", err)
			}
		}
	}
	return nil
}

func loadOrder(db *gorm.DB, where string, args ...interface{}) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Selections", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("DeliveryAddress").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where(where, args...).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load order", err)
	}
	return &order, nil
}
