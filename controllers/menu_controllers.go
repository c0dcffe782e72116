package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

type MenuController struct {
	Catalog services.Catalog
}

func NewMenuController(catalog services.Catalog) *MenuController {
	return &MenuController{Catalog: catalog}
}

// List returns the available items of the branch, optionally filtered by ?cat=.
func (mc *MenuController) List(c *gin.Context) {
	rc := middlewares.Scope(c)

	items, err := mc.Catalog.ListMenu(c.Request.Context(), rc.Branch.ID, c.Query("cat"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	out := make([]foodJSON, 0, len(items))
	for i := range items {
		out = append(out, presentFood(&items[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"branch": rc.Branch.Name,
		"items":  out,
	})
}

// Item returns one food item by slug or id with its customizations.
func (mc *MenuController) Item(c *gin.Context) {
	rc := middlewares.Scope(c)

	item, err := mc.Catalog.GetFoodItem(c.Request.Context(), rc.Branch.ID, c.Param("item"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Food item", presentFood(item))
}
