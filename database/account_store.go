package database

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
)

var ErrEmailTaken = &apperrors.Error{Kind: apperrors.KindConflict, Code: "email_taken", Message: "email is already registered"}

// Registration is the data of a new customer account.
type Registration struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// RegisterCustomer creates a customer account together with its profile.
func (s *AccountStore) RegisterCustomer(ctx context.Context, reg Registration) (*models.Customer, error) {
	hashed, err := HashPassword(reg.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	customer := &models.Customer{
		Account: models.Account{
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     strings.ToLower(strings.TrimSpace(reg.Email)),
			Password:  hashed,
			Role:      models.RoleCustomer,
		},
	}
	if reg.Phone != "" {
		customer.Phone = &reg.Phone
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&customer.Account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return apperrors.Internal("failed to create account", err)
		}
		customer.AccountID = customer.Account.ID
		if err := tx.Omit("Account").Create(customer).Error; err != nil {
			return apperrors.Internal("failed to create customer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Authenticate checks credentials. Unknown email and wrong password fail
// the same way.
func (s *AccountStore) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "invalid login credentials")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load account", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "invalid login credentials")
	}
	return &account, nil
}

func (s *AccountStore) Account(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "account no longer exists")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load account", err)
	}
	return &account, nil
}

// Profile returns the customer with its saved addresses.
func (s *AccountStore) Profile(ctx context.Context, accountID uint) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).
		Preload("Account").
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("account_id = ?", accountID).
		Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCustomerNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load profile", err)
	}
	return &customer, nil
}

func (s *AccountStore) AddAddress(ctx context.Context, customerID uint, addr models.ShippingAddress) (*models.ShippingAddress, error) {
	if strings.TrimSpace(addr.Line1) == "" || strings.TrimSpace(addr.City) == "" {
		return nil, apperrors.New(apperrors.ErrMissingDelivery, "address needs line1 and city")
	}
	addr.ID = 0
	addr.CustomerID = customerID
	if err := s.db.WithContext(ctx).Create(&addr).Error; err != nil {
		return nil, apperrors.Internal("failed to save address", err)
	}
	return &addr, nil
}
