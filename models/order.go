package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order state machine.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusReady     OrderStatus = "ready"
	StatusOnRoute   OrderStatus = "on-route"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

// DeliveryOption is how the customer receives the order.
type DeliveryOption string

const (
	DeliveryOptionDelivery DeliveryOption = "delivery"
	DeliveryOptionPickup   DeliveryOption = "pickup"
)

const DefaultOrderSource = "web:shago-meals"

// Column widths of the free-text order fields.
const (
	MaxOrderSourceLen = 20
	MaxPaymentRefLen  = 64
)

// Order is a placed order. Line items and money fields are frozen at
// checkout; only status and payment fields change afterwards.
type Order struct {
	ID                uint                 `gorm:"primaryKey" json:"id"`
	Code              string               `gorm:"type:varchar(12);uniqueIndex;not null" json:"order_id"`
	TenantID          uint                 `gorm:"not null;index" json:"tenant_id"`
	BranchID          uint                 `gorm:"not null;index" json:"branch_id"`
	CustomerID        uint                 `gorm:"not null;index" json:"customer_id"`
	Customer          Customer             `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Source            string               `gorm:"type:varchar(20)" json:"source"`
	Items             []LineItem           `gorm:"foreignKey:OrderID" json:"items"`
	DeliveryOption    DeliveryOption       `gorm:"type:varchar(20);not null" json:"delivery_option"`
	PickupTime        *time.Time           `json:"pickup_time,omitempty"`
	DeliveryAddressID *uint                `json:"delivery_address_id,omitempty"`
	DeliveryAddress   *ShippingAddress     `gorm:"foreignKey:DeliveryAddressID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"delivery_address,omitempty"`
	PaymentStatus     bool                 `gorm:"not null" json:"payment_status"`
	PaymentRef        *string              `gorm:"type:varchar(64)" json:"payment_id,omitempty"`
	Invoice           *string              `gorm:"type:varchar(64)" json:"invoice,omitempty"`
	Status            OrderStatus          `gorm:"type:varchar(20);not null;index" json:"status"`
	Canceled          bool                 `gorm:"not null;index" json:"canceled"`
	Subtotal          decimal.Decimal      `gorm:"type:decimal(18,6);not null" json:"subtotal"`
	DeliveryFee       decimal.Decimal      `gorm:"type:decimal(18,6);not null" json:"delivery_fee"`
	VAT               decimal.Decimal      `gorm:"type:decimal(18,6);not null" json:"vat"`
	ProcessingFee     decimal.Decimal      `gorm:"type:decimal(18,6);not null" json:"processing_fee"`
	Total             decimal.Decimal      `gorm:"type:decimal(18,6);not null" json:"total"`
	StatusHistory     []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history,omitempty"`
	CreatedAt         time.Time            `gorm:"not null;index" json:"created_on"`
	UpdatedAt         time.Time            `gorm:"not null" json:"updated_at"`
}

// OrderStatusHistory records every status change, including the initial one.
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `gorm:"type:varchar(255)" json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
