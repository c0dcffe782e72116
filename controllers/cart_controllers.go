package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/middlewares"
	"github.com/yeremiapane/shagomeals/services"
	"github.com/yeremiapane/shagomeals/utils"
)

// Cart actions of the form based storefront.
const (
	ActionAddToCart      = "add-to-cart"
	ActionRemoveFromCart = "remove-from-cart"
	ActionIncreaseOrder  = "increase-order"
	ActionDecreaseOrder  = "decrease-order"
)

type CartController struct {
	Carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{Carts: carts}
}

func (cc *CartController) Get(c *gin.Context) {
	cc.respondCart(c, http.StatusOK, "Cart")
}

func (cc *CartController) AddItem(c *gin.Context) {
	var req struct {
		Item    json.RawMessage   `json:"item" binding:"required"`
		Qty     *int              `json:"qty"`
		Choices map[string]string `json:"choices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	qty := 1
	if req.Qty != nil {
		qty = *req.Qty
	}

	line, err := cc.Carts.AddItem(c.Request.Context(), middlewares.Scope(c), itemRef(req.Item), qty, req.Choices)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Successfully added item to cart", gin.H{"line_item_id": line.ID})
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	lineID, err := lineParam(c.Param("line"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	if err := cc.Carts.RemoveItem(c.Request.Context(), middlewares.Scope(c), lineID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Successfully removed item from cart", nil)
}

func (cc *CartController) ChangeQuantity(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	lineID, err := lineParam(c.Param("line"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	line, err := cc.Carts.ChangeQuantity(c.Request.Context(), middlewares.Scope(c), lineID, req.Delta)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Quantity updated", gin.H{"line_item_id": line.ID, "quantity": line.Quantity})
}

func (cc *CartController) UpdateChoices(c *gin.Context) {
	var req struct {
		Choices map[string]string `json:"choices"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	lineID, err := lineParam(c.Param("line"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	if _, err := cc.Carts.UpdateChoices(c.Request.Context(), middlewares.Scope(c), lineID, req.Choices); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	cc.respondCart(c, http.StatusOK, "Customizations updated")
}

// Action serves the single POST endpoint of the storefront, where the
// action field selects the mutation and customizations arrive as
// {"size": {"option": "Large"}}. It answers with the updated cart.
func (cc *CartController) Action(c *gin.Context) {
	var req struct {
		Action         string                       `json:"action" binding:"required"`
		Item           json.RawMessage              `json:"item" binding:"required"`
		Qty            *int                         `json:"qty"`
		Customizations map[string]map[string]string `json:"customizations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	rc := middlewares.Scope(c)
	ref := itemRef(req.Item)

	var (
		message string
		err     error
	)
	switch req.Action {
	case ActionAddToCart:
		qty := 1
		if req.Qty != nil {
			qty = *req.Qty
		}
		choices := make(map[string]string, len(req.Customizations))
		for group, picked := range req.Customizations {
			choices[group] = picked["option"]
		}
		_, err = cc.Carts.AddItem(ctx, rc, ref, qty, choices)
		message = "Successfully added item to cart"
	case ActionRemoveFromCart, ActionIncreaseOrder, ActionDecreaseOrder:
		var lineID uint
		if lineID, err = lineParam(ref); err != nil {
			break
		}
		switch req.Action {
		case ActionRemoveFromCart:
			err = cc.Carts.RemoveItem(ctx, rc, lineID)
			message = "Successfully removed item from cart"
		case ActionIncreaseOrder:
			_, err = cc.Carts.ChangeQuantity(ctx, rc, lineID, 1)
			message = "Quantity updated"
		default:
			_, err = cc.Carts.ChangeQuantity(ctx, rc, lineID, -1)
			message = "Quantity updated"
		}
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("unknown cart action "+strconv.Quote(req.Action)))
		return
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	cc.respondCart(c, http.StatusOK, message)
}

func (cc *CartController) respondCart(c *gin.Context, status int, message string) {
	view, err := cc.Carts.View(c.Request.Context(), middlewares.Scope(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, status, message, presentCart(view))
}

// itemRef accepts the item as a JSON string (slug) or a bare number (id).
func itemRef(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func lineParam(v string) (uint, error) {
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.New(apperrors.ErrLineItemNotFound, "invalid line item id %q", v)
	}
	return uint(id), nil
}
