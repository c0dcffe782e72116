package database

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
)

var _ services.Catalog = (*CatalogStore)(nil)

// CatalogStore reads menus. It never writes.
type CatalogStore struct {
	db *gorm.DB
}

func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}

// GetFoodItem looks the item up within the branch, by id when slugOrID is
// numeric and by slug otherwise. A numeric slug such as "1984" is tried
// when no item has that id. Items of a hidden menu are not found.
func (s *CatalogStore) GetFoodItem(ctx context.Context, branchID uint, slugOrID string) (*models.FoodItem, error) {
	db := s.db.WithContext(ctx)

	visible, err := menuVisible(db, branchID)
	if err != nil && !errors.Is(err, apperrors.ErrBranchNotFound) {
		return nil, err
	}
	if !visible {
		return nil, apperrors.New(apperrors.ErrItemNotFound, "food item %q not found", slugOrID)
	}

	item, err := takeFoodItem(db, branchID, slugOrID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrItemNotFound, "food item %q not found", slugOrID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load food item", err)
	}
	return item, nil
}

func takeFoodItem(db *gorm.DB, branchID uint, slugOrID string) (*models.FoodItem, error) {
	load := func(where string, arg interface{}) (*models.FoodItem, error) {
		var item models.FoodItem
		err := db.Where("branch_id = ?", branchID).
			Where(where, arg).
			Preload("Category").
			Preload("Tags").
			Preload("OptionGroups", byPosition).
			Preload("OptionGroups.Choices", byPosition).
			Take(&item).Error
		if err != nil {
			return nil, err
		}
		return &item, nil
	}

	if id, err := strconv.ParseUint(slugOrID, 10, 64); err == nil {
		item, err := load("id = ?", id)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return item, err
		}
	}
	return load("slug = ?", slugOrID)
}

func menuVisible(db *gorm.DB, branchID uint) (bool, error) {
	var branch models.Branch
	if err := db.Select("id", "menu_visible").Take(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrBranchNotFound
		}
		return false, apperrors.Internal("failed to load branch", err)
	}
	return branch.MenuVisible, nil
}

func (s *CatalogStore) ListOptionGroups(ctx context.Context, foodItemID uint) ([]models.OptionGroup, error) {
	var groups []models.OptionGroup
	err := s.db.WithContext(ctx).
		Preload("Choices", byPosition).
		Where("food_item_id = ?", foodItemID).
		Scopes(byPosition).
		Find(&groups).Error
	if err != nil {
		return nil, apperrors.Internal("failed to load option groups", err)
	}
	return groups, nil
}

// ListMenu returns the available items of a branch, optionally limited to a
// category matched case-insensitively. A hidden menu lists nothing.
func (s *CatalogStore) ListMenu(ctx context.Context, branchID uint, category string) ([]models.FoodItem, error) {
	db := s.db.WithContext(ctx)

	visible, err := menuVisible(db, branchID)
	if err != nil {
		return nil, err
	}
	if !visible {
		return []models.FoodItem{}, nil
	}

	q := db.Model(&models.FoodItem{}).
		Where("food_items.branch_id = ? AND food_items.available = ?", branchID, true)
	if category != "" {
		q = q.Joins("JOIN categories ON categories.id = food_items.category_id").
			Where("LOWER(categories.name) = LOWER(?)", category)
	}

	var items []models.FoodItem
	err = q.Preload("Category").
		Preload("Tags").
		Preload("OptionGroups", byPosition).
		Preload("OptionGroups.Choices", byPosition).
		Order("food_items.featured DESC, food_items.name").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Internal("failed to list menu", err)
	}
	return items, nil
}
