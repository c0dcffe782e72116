package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/database"
	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/utils"
)

type UserController struct {
	Accounts *database.AccountStore
	TokenTTL time.Duration
}

func NewUserController(accounts *database.AccountStore, ttl time.Duration) *UserController {
	return &UserController{Accounts: accounts, TokenTTL: ttl}
}

// Register creates a customer account and logs it in.
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customer, err := uc.Accounts.RegisterCustomer(c.Request.Context(), database.Registration{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	token, err := utils.GenerateToken(customer.Account.ID, customer.Account.Role, uc.TokenTTL)
	if err != nil {
		utils.RespondAppError(c, apperrors.Internal("failed to sign token", err))
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"account": customer.Account.ID}).Info("customer registered")

	utils.RespondJSON(c, http.StatusCreated, "Account created", gin.H{
		"token":       token,
		"account_id":  customer.Account.ID,
		"customer_id": customer.ID,
	})
}

func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	account, err := uc.Accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	token, err := utils.GenerateToken(account.ID, account.Role, uc.TokenTTL)
	if err != nil {
		utils.RespondAppError(c, apperrors.Internal("failed to sign token", err))
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"account": account.ID, "role": account.Role}).Info("login")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"id":        account.ID,
			"name":      account.Name(),
			"email":     account.Email,
			"role":      account.Role,
			"tenant_id": account.TenantID,
		},
	})
}

// Logout blacklists the presented token until it would have expired anyway.
func (uc *UserController) Logout(c *gin.Context) {
	expiresAt := time.Now().Add(uc.TokenTTL)
	if v, ok := c.Get(middlewares.TokenExpiryKey); ok {
		if t, ok := v.(time.Time); ok {
			expiresAt = t
		}
	}
	utils.BlacklistToken(c.GetString(middlewares.TokenKey), expiresAt)

	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (uc *UserController) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.GetUint(middlewares.AccountIDKey)

	if c.GetString(middlewares.RoleKey) != models.RoleCustomer {
		account, err := uc.Accounts.Account(ctx, accountID)
		if err != nil {
			utils.RespondAppError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Account", account)
		return
	}

	customer, err := uc.Accounts.Profile(ctx, accountID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Account", gin.H{
		"account":   customer.Account,
		"phone":     customer.Phone,
		"addresses": customer.Addresses,
	})
}

func (uc *UserController) AddAddress(c *gin.Context) {
	var req struct {
		Line1 string `json:"line1" binding:"required"`
		Line2 string `json:"line2"`
		City  string `json:"city" binding:"required"`
		State string `json:"state"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	customer, err := uc.Accounts.Profile(ctx, c.GetUint(middlewares.AccountIDKey))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	addr, err := uc.Accounts.AddAddress(ctx, customer.ID, models.ShippingAddress{
		Line1: req.Line1,
		Line2: req.Line2,
		City:  req.City,
		State: req.State,
		Phone: req.Phone,
	})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Address saved", addr)
}
