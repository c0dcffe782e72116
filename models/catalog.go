package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNegativePrice      = errors.New("price must not be negative")
	ErrForeignDefault     = errors.New("default choice must belong to its option group")
	ErrNegativePriceDelta = errors.New("choice price delta must not be negative")
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"not null;uniqueIndex:idx_tenant_category" json:"tenant_id"`
	Name      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_tenant_category" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type Tag struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Tag string `gorm:"type:varchar(50);uniqueIndex;not null" json:"tag"`
}

// FoodItem is a menu entry of a branch.
type FoodItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BranchID     uint            `gorm:"not null;uniqueIndex:idx_branch_item_name;uniqueIndex:idx_branch_item_slug" json:"branch_id"`
	Name         string          `gorm:"type:varchar(150);not null;uniqueIndex:idx_branch_item_name" json:"name"`
	Slug         string          `gorm:"type:varchar(150);not null;uniqueIndex:idx_branch_item_slug" json:"slug"`
	About        string          `gorm:"type:text" json:"about"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CategoryID   *uint           `gorm:"index" json:"category_id,omitempty"`
	Category     *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"category,omitempty"`
	Tags         []Tag           `gorm:"many2many:food_item_tags" json:"tags,omitempty"`
	Available    bool            `gorm:"not null" json:"available"`
	Featured     bool            `gorm:"not null" json:"featured"`
	OptionGroups []OptionGroup   `gorm:"foreignKey:FoodItemID" json:"option_groups,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

func (f *FoodItem) BeforeSave(tx *gorm.DB) error {
	if f.Slug == "" {
		f.Slug = Slugify(f.Name)
	}
	if f.Price.IsNegative() {
		return fmt.Errorf("food item %q: %w", f.Name, ErrNegativePrice)
	}
	return nil
}

// OptionGroup is a customizable feature of a food item, e.g. "size".
type OptionGroup struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FoodItemID      uint      `gorm:"not null;uniqueIndex:idx_item_group_name" json:"food_item_id"`
	Name            string    `gorm:"type:varchar(150);not null;uniqueIndex:idx_item_group_name" json:"name"`
	Required        bool      `gorm:"not null" json:"required"`
	Position        int       `gorm:"not null" json:"position"`
	DefaultChoiceID *uint     `json:"default_choice_id,omitempty"`
	Choices         []Choice  `gorm:"foreignKey:OptionGroupID" json:"choices,omitempty"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (g *OptionGroup) BeforeSave(tx *gorm.DB) error {
	if g.DefaultChoiceID == nil {
		return nil
	}
	if g.ID == 0 {
		// choices of a new group cannot exist yet
		return fmt.Errorf("option group %q: %w", g.Name, ErrForeignDefault)
	}
	var n int64
	err := tx.Session(&gorm.Session{NewDB: true}).Model(&Choice{}).
		Where("id = ? AND option_group_id = ?", *g.DefaultChoiceID, g.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("option group %q: %w", g.Name, ErrForeignDefault)
	}
	return nil
}

// DefaultChoice returns the group's default among its loaded choices.
func (g *OptionGroup) DefaultChoice() (*Choice, bool) {
	if g.DefaultChoiceID == nil {
		return nil, false
	}
	for i := range g.Choices {
		if g.Choices[i].ID == *g.DefaultChoiceID {
			return &g.Choices[i], true
		}
	}
	return nil, false
}

// Choice is one selectable value of an option group.
type Choice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OptionGroupID uint            `gorm:"not null;uniqueIndex:idx_group_choice_name" json:"option_group_id"`
	Name          string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_group_choice_name" json:"name"`
	PriceDelta    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_delta"`
	Position      int             `gorm:"not null" json:"position"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

func (c *Choice) BeforeSave(tx *gorm.DB) error {
	if c.PriceDelta.IsNegative() {
		return fmt.Errorf("choice %q: %w", c.Name, ErrNegativePriceDelta)
	}
	return nil
}
