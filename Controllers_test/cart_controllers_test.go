package Controllers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *server) cart(t *testing.T, token string) cartData {
	t.Helper()

	w := s.do(t, http.MethodGet, s.branchPath("/cart"), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart cartData
	decode(t, w, &cart)
	return cart
}

func TestCartAddAndView(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)

	empty := s.cart(t, token)
	assert.Empty(t, empty.Items)
	assert.Equal(t, "0.00", empty.Subtotal)

	s.fillCart(t, token)

	cart := s.cart(t, token)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "17.00", cart.Subtotal)

	// newest first
	assert.Equal(t, 1, cart.Items[0].Quantity)
	assert.Equal(t, "5.00", cart.Items[0].Total)
	require.Len(t, cart.Items[0].Customizations, 1)
	assert.Equal(t, "Small", cart.Items[0].Customizations[0].Choice)

	assert.Equal(t, 2, cart.Items[1].Quantity)
	assert.Equal(t, "12.00", cart.Items[1].Total)
	assert.Equal(t, "Large", cart.Items[1].Customizations[0].Choice)
}

func TestCartAddFailures(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)

	tests := []struct {
		name   string
		body   gin.H
		status int
		code   string
	}{
		{"unknown item", gin.H{"item": "pizza"}, http.StatusNotFound, "item_not_found"},
		{"unknown group", gin.H{"item": "burger", "choices": gin.H{"sauce": "hot"}}, http.StatusNotFound, "unknown_option_group"},
		{"unknown choice", gin.H{"item": "burger", "choices": gin.H{"size": "Huge"}}, http.StatusNotFound, "unknown_choice"},
		{"zero quantity", gin.H{"item": "burger", "qty": 0}, http.StatusUnprocessableEntity, "invalid_quantity"},
		{"unavailable", gin.H{"item": "suya-wrap"}, http.StatusUnprocessableEntity, "item_unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, s.branchPath("/cart/items"), token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			env := decode(t, w, nil)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	assert.Empty(t, s.cart(t, token).Items)
}

func TestCartItemByNumericID(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)

	w := s.do(t, http.MethodPost, s.branchPath("/cart/items"), token, gin.H{"item": s.demo.Fries.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cart := s.cart(t, token)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Fries", cart.Items[0].Name)
	assert.Empty(t, cart.Items[0].Customizations, "optional dip is not defaulted")
}

func TestCartQuantityAndRemove(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)
	s.fillCart(t, token)

	lines := s.cart(t, token).Items
	single := lines[0].ID
	double := lines[1].ID

	w := s.do(t, http.MethodPatch, s.branchPath(fmt.Sprintf("/cart/items/%d", single)), token, gin.H{"delta": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var line struct {
		Quantity int `json:"quantity"`
	}
	decode(t, w, &line)
	assert.Equal(t, 3, line.Quantity)

	w = s.do(t, http.MethodPatch, s.branchPath(fmt.Sprintf("/cart/items/%d", double)), token, gin.H{"delta": -2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodDelete, s.branchPath(fmt.Sprintf("/cart/items/%d", double)), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, s.branchPath(fmt.Sprintf("/cart/items/%d", double)), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, s.branchPath("/cart/items/abc"), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cart := s.cart(t, token)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "15.00", cart.Subtotal)
}

func TestCartUpdateChoices(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)

	w := s.do(t, http.MethodPost, s.branchPath("/cart/items"), token, gin.H{"item": "burger"})
	require.Equal(t, http.StatusCreated, w.Code)
	lineID := s.cart(t, token).Items[0].ID

	w = s.do(t, http.MethodPut, s.branchPath(fmt.Sprintf("/cart/items/%d/choices", lineID)), token, gin.H{"choices": gin.H{"size": "Large"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cart cartData
	decode(t, w, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Large", cart.Items[0].Customizations[0].Choice)
	assert.Equal(t, "7.00", cart.Subtotal)
}

func TestCartActionProtocol(t *testing.T) {
	s := setupServer(t)
	token := s.customerToken(t)

	w := s.do(t, http.MethodPost, s.branchPath("/cart"), token, gin.H{
		"action":         "add-to-cart",
		"item":           "burger",
		"qty":            2,
		"customizations": gin.H{"size": gin.H{"option": "Large"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart cartData
	decode(t, w, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "12.00", cart.Subtotal)
	lineID := cart.Items[0].ID

	w = s.do(t, http.MethodPost, s.branchPath("/cart"), token, gin.H{"action": "increase-order", "item": lineID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cart)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "21.00", cart.Subtotal)

	w = s.do(t, http.MethodPost, s.branchPath("/cart"), token, gin.H{"action": "decrease-order", "item": fmt.Sprint(lineID)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cart)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	w = s.do(t, http.MethodPost, s.branchPath("/cart"), token, gin.H{"action": "remove-from-cart", "item": lineID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &cart)
	assert.Empty(t, cart.Items)

	w = s.do(t, http.MethodPost, s.branchPath("/cart"), token, gin.H{"action": "empty-cart", "item": lineID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartRequiresCustomer(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, s.branchPath("/cart"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, s.branchPath("/cart"), s.staffToken(t), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
