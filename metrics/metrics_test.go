package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersExposed(t *testing.T) {
	CartMutations.WithLabelValues("add").Inc()
	OrdersPlaced.WithLabelValues("mama-put").Inc()
	OrderIDCollisions.Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `shagomeals_cart_mutations_total{op="add"}`)
	assert.Contains(t, body, `shagomeals_orders_placed_total{tenant="mama-put"}`)
	assert.Contains(t, body, "shagomeals_order_id_collisions_total")
}
