package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

// CustomerController serves a customer's own order history in a tenant.
type CustomerController struct {
	Orders *services.OrderService
}

func NewCustomerController(orders *services.OrderService) *CustomerController {
	return &CustomerController{Orders: orders}
}

func (cc *CustomerController) MyOrders(c *gin.Context) {
	orders, err := cc.Orders.ListForCustomer(c.Request.Context(), middlewares.Scope(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrders(c, orders)
}

func (cc *CustomerController) MyOrder(c *gin.Context) {
	order, err := cc.Orders.GetForCustomer(c.Request.Context(), middlewares.Scope(c), c.Param("code"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	respondOrder(c, http.StatusOK, "Order", order)
}
