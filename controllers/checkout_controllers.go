package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

type CheckoutController struct {
	Checkout *services.CheckoutService
}

func NewCheckoutController(checkout *services.CheckoutService) *CheckoutController {
	return &CheckoutController{Checkout: checkout}
}

// Totals prices the current cart without placing it.
func (cc *CheckoutController) Totals(c *gin.Context) {
	summary, err := cc.Checkout.GetTotals(c.Request.Context(), middlewares.Scope(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Checkout", presentCheckout(summary))
}

type receipt struct {
	TransactionID string `json:"transaction_id"`
	FlutterRef    string `json:"flutter_ref"`
}

type placeOrderRequest struct {
	DeliveryOption    models.DeliveryOption `json:"delivery_option"`
	PickupTime        string                `json:"pickup_time"`
	DeliveryAddressID *uint                 `json:"delivery_address_id"`
	PaymentRef        string                `json:"payment_ref"`
	Invoice           string                `json:"invoice"`
	Source            string                `json:"source"`
	Receipt           *receipt              `json:"receipt"`
}

func (r *placeOrderRequest) input() (services.PlaceOrderInput, error) {
	in := services.PlaceOrderInput{
		DeliveryOption:    r.DeliveryOption,
		DeliveryAddressID: r.DeliveryAddressID,
		Source:            r.Source,
	}
	if in.DeliveryOption == "" {
		in.DeliveryOption = models.DeliveryOptionDelivery
	}
	if r.PickupTime != "" {
		t, err := time.Parse(time.RFC3339, r.PickupTime)
		if err != nil {
			return in, apperrors.New(apperrors.ErrMissingDelivery, "pickup_time must be RFC3339, got %q", r.PickupTime)
		}
		in.PickupTime = &t
	}

	paymentRef, invoice := r.PaymentRef, r.Invoice
	if r.Receipt != nil {
		if paymentRef == "" {
			paymentRef = r.Receipt.TransactionID
		}
		if invoice == "" {
			invoice = r.Receipt.FlutterRef
		}
	}
	if paymentRef != "" {
		in.PaymentRef = &paymentRef
	}
	if invoice != "" {
		in.Invoice = &invoice
	}
	return in, nil
}

// Place turns the cart into a pending order. A payment reference, given
// directly or as the gateway receipt, marks the order paid.
func (cc *CheckoutController) Place(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	in, err := req.input()
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	order, err := cc.Checkout.PlaceOrder(c.Request.Context(), middlewares.Scope(c), in)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	out, err := presentOrder(order)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Successfully created your order", out)
}
