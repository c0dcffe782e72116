package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/utils"
)

const (
	DemoTenantSlug       = "mama-put"
	DemoStaffEmail       = "staff@mama-put.test"
	DemoStaffPassword    = "staffpass"
	DemoCustomerEmail    = "customer@mama-put.test"
	DemoCustomerPassword = "customerpass"
)

// Demo holds the records created by SeedDemo.
type Demo struct {
	Tenant      models.Tenant
	Branch      models.Branch
	Burger      models.FoodItem
	Fries       models.FoodItem
	Wrap        models.FoodItem
	Large       models.Choice
	Small       models.Choice
	Mayo        models.Choice
	Staff       models.Account
	Customer    models.Customer
	HomeAddress models.ShippingAddress
}

// SeedDemo inserts a demo place: Burger 5.00 with a required size (Small
// +0.00 default, Large +2.00), Fries 2.50 with an optional dip, and an
// unavailable wrap, plus a staff and a customer account. Seeding twice
// fails because the tenant slug is unique.
func SeedDemo(db *gorm.DB) (*Demo, error) {
	d := &Demo{}
	err := db.Transaction(func(tx *gorm.DB) error {
		d.Tenant = models.Tenant{Name: "Mama Put", About: "Home-style meals"}
		if err := tx.Create(&d.Tenant).Error; err != nil {
			return fmt.Errorf("tenant: %w", err)
		}
		d.Branch = models.Branch{TenantID: d.Tenant.ID, Name: "Lekki", Address: "12 Admiralty Way", Active: true, MenuVisible: true}
		if err := tx.Omit(clause.Associations).Create(&d.Branch).Error; err != nil {
			return fmt.Errorf("branch: %w", err)
		}

		mains := models.Category{TenantID: d.Tenant.ID, Name: "Mains"}
		sides := models.Category{TenantID: d.Tenant.ID, Name: "Sides"}
		if err := tx.Create(&[]*models.Category{&mains, &sides}).Error; err != nil {
			return fmt.Errorf("categories: %w", err)
		}

		var err error
		d.Burger, err = createItem(tx, d.Branch.ID, &mains.ID, "Burger", "5.00", true)
		if err != nil {
			return err
		}
		size, choices, err := createGroup(tx, d.Burger.ID, "size", true, 0, []choiceSeed{{"Small", "0.00"}, {"Large", "2.00"}})
		if err != nil {
			return err
		}
		d.Small, d.Large = choices[0], choices[1]
		size.DefaultChoiceID = &d.Small.ID
		if err := tx.Omit(clause.Associations).Save(&size).Error; err != nil {
			return fmt.Errorf("size default: %w", err)
		}

		d.Fries, err = createItem(tx, d.Branch.ID, &sides.ID, "Fries", "2.50", true)
		if err != nil {
			return err
		}
		_, choices, err = createGroup(tx, d.Fries.ID, "dip", false, 0, []choiceSeed{{"Ketchup", "0.00"}, {"Mayo", "0.50"}})
		if err != nil {
			return err
		}
		d.Mayo = choices[1]

		d.Wrap, err = createItem(tx, d.Branch.ID, &mains.ID, "Suya Wrap", "4.00", false)
		if err != nil {
			return err
		}

		staffHash, err := HashPassword(DemoStaffPassword)
		if err != nil {
			return err
		}
		d.Staff = models.Account{FirstName: "Ada", LastName: "Obi", Email: DemoStaffEmail, Password: staffHash, Role: models.RoleStaff, TenantID: &d.Tenant.ID}
		if err := tx.Create(&d.Staff).Error; err != nil {
			return fmt.Errorf("staff: %w", err)
		}

		customerHash, err := HashPassword(DemoCustomerPassword)
		if err != nil {
			return err
		}
		d.Customer = models.Customer{Account: models.Account{FirstName: "Tunde", LastName: "Bello", Email: DemoCustomerEmail, Password: customerHash, Role: models.RoleCustomer}}
		if err := tx.Create(&d.Customer).Error; err != nil {
			return fmt.Errorf("customer: %w", err)
		}
		d.HomeAddress = models.ShippingAddress{CustomerID: d.Customer.ID, Line1: "4 Bourdillon Rd", City: "Lagos", State: "Lagos"}
		if err := tx.Create(&d.HomeAddress).Error; err != nil {
			return fmt.Errorf("address: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("demo data already present: %w", err)
		}
		return nil, err
	}

	utils.InfoLogger.Infof("seeded tenant %s branch %d", d.Tenant.Slug, d.Branch.ID)
	return d, nil
}

type choiceSeed struct {
	name  string
	delta string
}

func createItem(tx *gorm.DB, branchID uint, categoryID *uint, name, price string, available bool) (models.FoodItem, error) {
	item := models.FoodItem{
		BranchID:   branchID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: categoryID,
		Available:  available,
	}
	if err := tx.Omit(clause.Associations).Create(&item).Error; err != nil {
		return item, fmt.Errorf("food item %s: %w", name, err)
	}
	return item, nil
}

func createGroup(tx *gorm.DB, foodItemID uint, name string, required bool, position int, seeds []choiceSeed) (models.OptionGroup, []models.Choice, error) {
	group := models.OptionGroup{FoodItemID: foodItemID, Name: name, Required: required, Position: position}
	if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
		return group, nil, fmt.Errorf("option group %s: %w", name, err)
	}

	choices := make([]models.Choice, 0, len(seeds))
	for i, cs := range seeds {
		choices = append(choices, models.Choice{
			OptionGroupID: group.ID,
			Name:          cs.name,
			PriceDelta:    decimal.RequireFromString(cs.delta),
			Position:      i,
		})
	}
	if err := tx.Create(&choices).Error; err != nil {
		return group, nil, fmt.Errorf("choices of %s: %w", name, err)
	}
	return group, choices, nil
}
