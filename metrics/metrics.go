package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds only this service's collectors so tests can scrape it
// without the process-wide default registry.
var Registry = prometheus.NewRegistry()

var (
	CartMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shagomeals_cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})

	OrdersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shagomeals_orders_placed_total",
		Help: "Orders placed by tenant slug.",
	}, []string{"tenant"})

	OrderTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shagomeals_order_transitions_total",
		Help: "Applied order status transitions by target status.",
	}, []string{"to"})

	OrderIDCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shagomeals_order_id_collisions_total",
		Help: "Generated order ids that hit the uniqueness constraint.",
	})
)

func init() {
	Registry.MustRegister(
		CartMutations,
		OrdersPlaced,
		OrderTransitions,
		OrderIDCollisions,
		collectors.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
