package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart holds the line items a customer is building for one branch.
// There is at most one cart per (customer, branch).
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CustomerID uint       `gorm:"not null;uniqueIndex:idx_cart_owner_branch" json:"customer_id"`
	Customer   Customer   `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	BranchID   uint       `gorm:"not null;uniqueIndex:idx_cart_owner_branch" json:"branch_id"`
	Branch     Branch     `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Items      []LineItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

// LineItem is owned by exactly one cart or exactly one order: CartID and
// OrderID are never both set. Checkout moves ownership and freezes the
// unit price, item name and selection deltas.
type LineItem struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	CartID     *uint               `gorm:"index" json:"cart_id,omitempty"`
	OrderID    *uint               `gorm:"index" json:"order_id,omitempty"`
	FoodItemID uint                `gorm:"not null;index" json:"food_item_id"`
	FoodItem   FoodItem            `gorm:"foreignKey:FoodItemID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Quantity   int                 `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	ItemName   string              `gorm:"type:varchar(150)" json:"item_name"`
	Selections []LineItemSelection `gorm:"foreignKey:LineItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"selections"`
	CreatedAt  time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"not null" json:"updated_at"`
}

// Frozen reports whether the line has been priced into an order.
func (l *LineItem) Frozen() bool {
	return l.UnitPrice.Valid
}

// BasePrice is the frozen unit price, or the live catalog price while in a cart.
func (l *LineItem) BasePrice() decimal.Decimal {
	if l.UnitPrice.Valid {
		return l.UnitPrice.Decimal
	}
	return l.FoodItem.Price
}

// Name is the frozen item name, or the live catalog name while in a cart.
func (l *LineItem) Name() string {
	if l.ItemName != "" {
		return l.ItemName
	}
	return l.FoodItem.Name
}

// LineItemSelection is the choice picked for one option group of a line.
type LineItemSelection struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	LineItemID    uint                `gorm:"not null;uniqueIndex:idx_line_group" json:"line_item_id"`
	OptionGroupID uint                `gorm:"not null;uniqueIndex:idx_line_group" json:"option_group_id"`
	ChoiceID      uint                `gorm:"not null" json:"choice_id"`
	Choice        Choice              `gorm:"foreignKey:ChoiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	GroupName     string              `gorm:"type:varchar(150);not null" json:"group_name"`
	ChoiceName    string              `gorm:"type:varchar(100);not null" json:"choice_name"`
	PriceDelta    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"price_delta"`
}

// Delta is the frozen price delta, or the live choice delta while in a cart.
func (s *LineItemSelection) Delta() decimal.Decimal {
	if s.PriceDelta.Valid {
		return s.PriceDelta.Decimal
	}
	return s.Choice.PriceDelta
}
