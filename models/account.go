package models

import "time"

// Account roles.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleMerchant = "merchant"
)

// Account is a login identity. Staff and merchant accounts belong to a tenant.
type Account struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(150)" json:"last_name"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role"`
	TenantID  *uint     `gorm:"index" json:"tenant_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Account) Name() string {
	return a.FirstName + " " + a.LastName
}

// IsStaffOf reports whether the account may operate orders of the tenant.
func (a *Account) IsStaffOf(tenantID uint) bool {
	if a.Role != RoleStaff && a.Role != RoleMerchant {
		return false
	}
	return a.TenantID != nil && *a.TenantID == tenantID
}

// Customer is the ordering profile of a customer account.
type Customer struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	AccountID uint              `gorm:"uniqueIndex;not null" json:"account_id"`
	Account   Account           `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Phone     *string           `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Addresses []ShippingAddress `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// ShippingAddress is a delivery destination owned by a customer.
type ShippingAddress struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index" json:"customer_id"`
	Line1      string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2      string    `gorm:"type:varchar(255)" json:"line2"`
	City       string    `gorm:"type:varchar(100);not null" json:"city"`
	State      string    `gorm:"type:varchar(100)" json:"state"`
	Phone      string    `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
