package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

// OrderController is the staff side of the order lifecycle.
type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// List supports ?status=, ?canceled=true|false and ?limit=.
func (oc *OrderController) List(c *gin.Context) {
	filter := services.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if v := c.Query("canceled"); v != "" {
		canceled, err := strconv.ParseBool(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.Canceled = &canceled
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		filter.Limit = limit
	}

	orders, err := oc.Orders.List(c.Request.Context(), middlewares.Scope(c), filter)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrders(c, orders)
}

func (oc *OrderController) Get(c *gin.Context) {
	order, err := oc.Orders.Get(c.Request.Context(), middlewares.Scope(c), c.Param("code"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, "Order", order)
}

func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.AdvanceStatus(c.Request.Context(), middlewares.Scope(c), c.Param("code"), req.Status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) Cancel(c *gin.Context) {
	order, err := oc.Orders.Cancel(c.Request.Context(), middlewares.Scope(c), c.Param("code"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, "Order canceled", order)
}

func (oc *OrderController) UpdatePayment(c *gin.Context) {
	var req struct {
		Paid       *bool   `json:"payment_status" binding:"required"`
		PaymentRef *string `json:"payment_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.SetPaymentStatus(c.Request.Context(), middlewares.Scope(c), c.Param("code"), *req.Paid, req.PaymentRef)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, "Payment status updated", order)
}

func respondOrder(c *gin.Context, status int, message string, order *models.Order) {
	out, err := presentOrder(order)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, status, message, out)
}

func respondOrders(c *gin.Context, orders []models.Order) {
	out, err := presentOrders(orders)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders", out)
}
