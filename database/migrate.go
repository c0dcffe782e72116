package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/utils"
)

// Models lists every table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.Branch{},
		&models.Account{},
		&models.Customer{},
		&models.ShippingAddress{},
		&models.Category{},
		&models.Tag{},
		&models.FoodItem{},
		&models.OptionGroup{},
		&models.Choice{},
		&models.Cart{},
		&models.Order{},
		&models.LineItem{},
		&models.LineItemSelection{},
		&models.OrderStatusHistory{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Infof("migrated %d tables", len(Models()))
	return nil
}
