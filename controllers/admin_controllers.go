package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

type AdminController struct {
	Orders *services.OrderService
}

func NewAdminController(orders *services.OrderService) *AdminController {
	return &AdminController{Orders: orders}
}

// Stats is the branch dashboard summary.
func (ac *AdminController) Stats(c *gin.Context) {
	s, err := ac.Orders.Stats(c.Request.Context(), middlewares.Scope(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats(s))
}
