package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Tenant is a merchant storefront.
type Tenant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
	About     string    `gorm:"type:text" json:"about"`
	Branches  []Branch  `gorm:"foreignKey:TenantID" json:"branches,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (t *Tenant) BeforeSave(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	return nil
}

// Branch is one physical or service location of a tenant.
type Branch struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    uint      `gorm:"not null;index" json:"tenant_id"`
	Tenant      Tenant    `gorm:"foreignKey:TenantID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"type:varchar(200);not null" json:"name"`
	Address     string    `gorm:"type:varchar(500)" json:"address"`
	Active      bool      `gorm:"not null" json:"active"`
	MenuVisible bool      `gorm:"not null" json:"menu_visible"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Slugify lowercases, turns spaces into dashes and drops quotes and dots.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "'", "")
	return strings.ReplaceAll(s, ".", "")
}
