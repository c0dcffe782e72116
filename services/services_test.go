package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shagomeals/config"
	"github.com/yeremiapane/shagomeals/database"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
	"github.com/yeremiapane/shagomeals/services"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(kind string, o *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, fmt.Sprintf("%s:%s:%s", kind, o.Code, o.Status))
}

func (n *recordingNotifier) OrderPlaced(o *models.Order) { n.record("placed", o) }
func (n *recordingNotifier) OrderChanged(o *models.Order, _ models.OrderStatus) {
	n.record("changed", o)
}
func (n *recordingNotifier) OrderCanceled(o *models.Order) { n.record("canceled", o) }

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	db       *gorm.DB
	demo     *database.Demo
	carts    *services.CartService
	checkout *services.CheckoutService
	orders   *services.OrderService
	notifier *recordingNotifier
	customer services.RequestContext
	staff    services.RequestContext
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := config.InitDB(config.DBConfig{Driver: "sqlite", DSN: ":memory:"}, logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	demo, err := database.SeedDemo(db)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	fees := config.NewFeeBook(pricing.DefaultFeeSchedule())
	catalog := database.NewCatalogStore(db)

	return &fixture{
		db:       db,
		demo:     demo,
		carts:    services.NewCartService(db, catalog),
		checkout: services.NewCheckoutService(db, fees, notifier, 5),
		orders:   services.NewOrderService(db, notifier),
		notifier: notifier,
		customer: customerContext(demo, &demo.Customer),
		staff: services.RequestContext{
			Tenant: demo.Tenant,
			Branch: demo.Branch,
			Actor:  services.Actor{AccountID: demo.Staff.ID, Role: models.RoleStaff, TenantID: &demo.Tenant.ID},
		},
	}
}

func customerContext(demo *database.Demo, c *models.Customer) services.RequestContext {
	return services.RequestContext{
		Tenant: demo.Tenant,
		Branch: demo.Branch,
		Actor:  services.Actor{AccountID: c.AccountID, Role: models.RoleCustomer, Customer: c},
	}
}

// otherCustomer registers a second customer of the demo place.
func (f *fixture) otherCustomer(t *testing.T) services.RequestContext {
	t.Helper()
	c, err := database.NewAccountStore(f.db).RegisterCustomer(context.Background(), database.Registration{
		FirstName: "Bisi", LastName: "Ade", Email: "bisi@example.com", Password: "pass1234",
	})
	require.NoError(t, err)
	return customerContext(f.demo, c)
}

func (f *fixture) addBurger(t *testing.T, qty int, size string) *models.LineItem {
	t.Helper()
	var choices map[string]string
	if size != "" {
		choices = map[string]string{"size": size}
	}
	line, err := f.carts.AddItem(context.Background(), f.customer, "burger", qty, choices)
	require.NoError(t, err)
	return line
}

func (f *fixture) placeDelivery(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.checkout.PlaceOrder(context.Background(), f.customer, services.PlaceOrderInput{
		DeliveryOption:    models.DeliveryOptionDelivery,
		DeliveryAddressID: &f.demo.HomeAddress.ID,
	})
	require.NoError(t, err)
	return order
}

func pickupAt(hour int) *time.Time {
	ts := time.Date(2026, 1, 2, hour, 0, 0, 0, time.UTC)
	return &ts
}
