package services

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// CartLine is a priced line of a cart or order.
type CartLine struct {
	ID         uint                       `json:"id"`
	FoodItemID uint                       `json:"food_item_id"`
	Name       string                     `json:"name"`
	Quantity   int                        `json:"quantity"`
	UnitPrice  decimal.Decimal            `json:"unit_price"`
	Selections []models.LineItemSelection `json:"selections"`
	LineTotal  decimal.Decimal            `json:"line_total"`
}

type CartView struct {
	CartID   uint            `json:"cart_id"`
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// CartService mutates the single cart of a (customer, branch) pair. Every
// mutation holds a row lock on the cart for its read-modify-write.
type CartService struct {
	db      *gorm.DB
	catalog Catalog
}

func NewCartService(db *gorm.DB, catalog Catalog) *CartService {
	return &CartService{db: db, catalog: catalog}
}

// GetOrCreate returns the caller's cart for the request branch, creating it
// on first access.
func (s *CartService) GetOrCreate(ctx context.Context, rc RequestContext) (*models.Cart, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}
	return getOrCreateCart(s.db.WithContext(ctx), customer.ID, rc.Branch.ID)
}

// AddItem appends a new line, even when an identical line already exists.
func (s *CartService) AddItem(ctx context.Context, rc RequestContext, item string, quantity int, choices map[string]string) (*models.LineItem, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, apperrors.New(apperrors.ErrInvalidQuantity, "quantity must be at least 1, got %d", quantity)
	}

	food, resolved, err := s.resolve(ctx, rc.Branch.ID, item, choices)
	if err != nil {
		return nil, err
	}
	if !food.Available {
		return nil, apperrors.New(apperrors.ErrItemUnavailable, "%s is not available", food.Name)
	}

	line := &models.LineItem{FoodItemID: food.ID, Quantity: quantity}
	line.FoodItem = *food
	line.Selections = selectionsFrom(0, resolved)
	if _, err := pricing.LineTotal(pricingLine(line)); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, customer.ID, rc.Branch.ID, true)
		if err != nil {
			return err
		}

		line.CartID = &cart.ID
		if err := tx.Omit(clause.Associations).Create(line).Error; err != nil {
			return apperrors.Internal("failed to add line item", err)
		}
		line.Selections = selectionsFrom(line.ID, resolved)
		if len(line.Selections) > 0 {
			if err := tx.Omit(clause.Associations).Create(&line.Selections).Error; err != nil {
				return apperrors.Internal("failed to save selections", err)
			}
		}
		return touchCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.logMutation("add", rc, *line.CartID, line.ID)
	return line, nil
}

// RemoveItem deletes a line of the caller's cart.
func (s *CartService) RemoveItem(ctx context.Context, rc RequestContext, lineItemID uint) error {
	customer, err := rc.customer()
	if err != nil {
		return err
	}

	var cartID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, customer.ID, rc.Branch.ID, false)
		if err != nil {
			return err
		}
		cartID = cart.ID

		line, err := findCartLine(tx, cart.ID, lineItemID)
		if err != nil {
			return err
		}
		if err := tx.Where("line_item_id = ?", line.ID).Delete(&models.LineItemSelection{}).Error; err != nil {
			return apperrors.Internal("failed to delete selections", err)
		}
		if err := tx.Delete(line).Error; err != nil {
			return apperrors.Internal("failed to delete line item", err)
		}
		return touchCart(tx, cart)
	})
	if err != nil {
		return err
	}

	s.logMutation("remove", rc, cartID, lineItemID)
	return nil
}

// ChangeQuantity adds delta to the line quantity. The result must stay at
// least 1; removing a line is RemoveItem.
func (s *CartService) ChangeQuantity(ctx context.Context, rc RequestContext, lineItemID uint, delta int) (*models.LineItem, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}

	var line *models.LineItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, customer.ID, rc.Branch.ID, false)
		if err != nil {
			return err
		}

		line, err = findCartLine(tx, cart.ID, lineItemID)
		if err != nil {
			return err
		}
		qty := line.Quantity + delta
		if qty < 1 {
			return apperrors.New(apperrors.ErrInvalidQuantity, "quantity would drop to %d", qty)
		}
		if err := tx.Model(line).Update("quantity", qty).Error; err != nil {
			return apperrors.Internal("failed to update quantity", err)
		}
		line.Quantity = qty
		return touchCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	op := "increase"
	if delta < 0 {
		op = "decrease"
	}
	s.logMutation(op, rc, *line.CartID, line.ID)
	return line, nil
}

// UpdateChoices replaces the selections of a line using the same resolution
// rules as AddItem.
func (s *CartService) UpdateChoices(ctx context.Context, rc RequestContext, lineItemID uint, choices map[string]string) (*models.LineItem, error) {
	customer, err := rc.customer()
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	cart, err := findCart(db, customer.ID, rc.Branch.ID)
	if err != nil {
		return nil, err
	}
	current, err := findCartLine(db, cart.ID, lineItemID)
	if err != nil {
		return nil, err
	}
	groups, err := s.catalog.ListOptionGroups(ctx, current.FoodItemID)
	if err != nil {
		return nil, err
	}
	resolved, err := ResolveChoices(groups, choices)
	if err != nil {
		return nil, err
	}

	var line *models.LineItem
	err = db.Transaction(func(tx *gorm.DB) error {
		cart, err := lockCart(tx, customer.ID, rc.Branch.ID, false)
		if err != nil {
			return err
		}
		line, err = findCartLine(tx, cart.ID, lineItemID)
		if err != nil {
			return err
		}

		if err := tx.Where("line_item_id = ?", line.ID).Delete(&models.LineItemSelection{}).Error; err != nil {
			return apperrors.Internal("failed to clear selections", err)
		}
		line.Selections = selectionsFrom(line.ID, resolved)
		if len(line.Selections) > 0 {
			if err := tx.Omit(clause.Associations).Create(&line.Selections).Error; err != nil {
				return apperrors.Internal("failed to save selections", err)
			}
		}
		return touchCart(tx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.logMutation("update_choices", rc, cart.ID, line.ID)
	return line, nil
}

// View prices the cart with live catalog prices, newest line first.
func (s *CartService) View(ctx context.Context, rc RequestContext) (*CartView, error) {
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

	lines, subtotal, err := PriceLines(items)
	if err != nil {
		return nil, err
	}
	return &CartView{CartID: cart.ID, Lines: lines, Subtotal: subtotal}, nil
}

func (s *CartService) resolve(ctx context.Context, branchID uint, item string, choices map[string]string) (*models.FoodItem, []ResolvedChoice, error) {
	food, err := s.catalog.GetFoodItem(ctx, branchID, item)
	if err != nil {
		return nil, nil, err
	}
	groups, err := s.catalog.ListOptionGroups(ctx, food.ID)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := ResolveChoices(groups, choices)
	if err != nil {
		return nil, nil, err
	}
	return food, resolved, nil
}

func (s *CartService) logMutation(op string, rc RequestContext, cartID, lineID uint) {
	metrics.CartMutations.WithLabelValues(op).Inc()
	utils.InfoLogger.WithFields(logrus.Fields{
		"tenant": rc.Tenant.Slug,
		"branch": rc.Branch.ID,
		"cart":   cartID,
		"line":   lineID,
	}).Infof("cart %s", op)
}

func findCart(db *gorm.DB, customerID, branchID uint) (*models.Cart, error) {
	var cart models.Cart
	err := db.Where("customer_id = ? AND branch_id = ?", customerID, branchID).Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCartNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load cart", err)
	}
	return &cart, nil
}

// getOrCreateCart tolerates a concurrent first access: losing the insert
// race on the (customer, branch) unique index means the other cart is ours.
func getOrCreateCart(db *gorm.DB, customerID, branchID uint) (*models.Cart, error) {
	cart, err := findCart(db, customerID, branchID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, apperrors.ErrCartNotFound) {
		return nil, err
	}

	cart = &models.Cart{CustomerID: customerID, BranchID: branchID}
	err = db.Omit(clause.Associations).Create(cart).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return findCart(db, customerID, branchID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to create cart", err)
	}
	return cart, nil
}

// lockCart loads the cart row FOR UPDATE inside tx.
func lockCart(tx *gorm.DB, customerID, branchID uint, create bool) (*models.Cart, error) {
	if create {
		if _, err := getOrCreateCart(tx, customerID, branchID); err != nil {
			return nil, err
		}
	}

	var cart models.Cart
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND branch_id = ?", customerID, branchID).
		Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCartNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to lock cart", err)
	}
	return &cart, nil
}

func findCartLine(db *gorm.DB, cartID, lineItemID uint) (*models.LineItem, error) {
	var line models.LineItem
	err := db.Where("id = ? AND cart_id = ?", lineItemID, cartID).Take(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrLineItemNotFound, "line item %d is not in this cart", lineItemID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load line item", err)
	}
	return &line, nil
}

func touchCart(tx *gorm.DB, cart *models.Cart) error {
	if err := tx.Model(cart).UpdateColumn("updated_at", time.Now()).Error; err != nil {
		return apperrors.Internal("failed to touch cart", err)
	}
	return nil
}

func loadLines(db *gorm.DB, where string, id uint, order string) ([]models.LineItem, error) {
	var items []models.LineItem
	err := db.Preload("FoodItem").
		Preload("Selections", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Selections.Choice").
		Where(where, id).
		Order(order).
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("failed to load line items (%s)", where), err)
	}
	return items, nil
}

// PriceLines prices each line, frozen values first, live catalog values
// otherwise, and sums them.
func PriceLines(items []models.LineItem) ([]CartLine, decimal.Decimal, error) {
	lines := make([]CartLine, 0, len(items))
	for i := range items {
		it := &items[i]
		total, err := pricing.LineTotal(pricingLine(it))
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, CartLine{
			ID:         it.ID,
			FoodItemID: it.FoodItemID,
			Name:       it.Name(),
			Quantity:   it.Quantity,
			UnitPrice:  it.BasePrice(),
			Selections: it.Selections,
			LineTotal:  total,
		})
	}
	subtotal, err := pricing.Subtotal(pricingLines(items))
	if err != nil {
		return nil, decimal.Zero, err
	}
	return lines, subtotal, nil
}
