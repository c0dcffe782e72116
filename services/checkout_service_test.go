package services_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/config"
	"github.com/yeremiapane/shagomeals/models"
	"github.com/yeremiapane/shagomeals/pricing"
	"github.com/yeremiapane/shagomeals/services"
)

func TestCheckoutScenarioTotal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addBurger(t, 2, "Large")
	f.addBurger(t, 1, "")

	summary, err := f.checkout.GetTotals(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, summary.Lines, 2)
	assert.Equal(t, "17.00", summary.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "27.26", summary.Totals.Total.StringFixed(2))

	order := f.placeDelivery(t)
	assert.Len(t, order.Code, 8)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.DefaultOrderSource, order.Source)
	assert.False(t, order.PaymentStatus)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "17.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "7.00", order.DeliveryFee.StringFixed(2))
	assert.Equal(t, "1.23", order.VAT.StringFixed(2))
	assert.Equal(t, "2.03", order.ProcessingFee.StringFixed(2))
	assert.Equal(t, "27.26", order.Total.StringFixed(2))
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistory[0].ToStatus)

	for _, it := range order.Items {
		assert.True(t, it.Frozen())
		assert.Nil(t, it.CartID)
		assert.Equal(t, "Burger", it.ItemName)
	}

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.True(t, view.Subtotal.IsZero())

	assert.Equal(t, []string{"placed:" + order.Code + ":pending"}, f.notifier.Events())
}

func TestGetTotalsEmptyCart(t *testing.T) {
	f := setup(t)

	summary, err := f.checkout.GetTotals(context.Background(), f.customer)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.True(t, summary.Totals.Total.IsZero())
}

func TestPlaceOrderValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.checkout.PlaceOrder(ctx, f.customer, services.PlaceOrderInput{
		DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(12),
	})
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	f.addBurger(t, 1, "")
	other := f.otherCustomer(t)
	longInvoice := strings.Repeat("i", models.MaxPaymentRefLen+1)

	tests := []struct {
		name string
		in   services.PlaceOrderInput
		want *apperrors.Error
	}{
		{"pickup without time", services.PlaceOrderInput{DeliveryOption: models.DeliveryOptionPickup}, apperrors.ErrMissingDelivery},
		{"delivery without address", services.PlaceOrderInput{DeliveryOption: models.DeliveryOptionDelivery}, apperrors.ErrMissingDelivery},
		{"unknown option", services.PlaceOrderInput{DeliveryOption: "drone"}, apperrors.ErrInvalidDeliveryOption},
		{"long source", services.PlaceOrderInput{
			DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(12),
			Source: strings.Repeat("s", models.MaxOrderSourceLen+1),
		}, apperrors.ErrFieldTooLong},
		{"long invoice", services.PlaceOrderInput{
			DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(12),
			Invoice: &longInvoice,
		}, apperrors.ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.checkout.PlaceOrder(ctx, f.customer, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = f.checkout.PlaceOrder(ctx, other, services.PlaceOrderInput{
		DeliveryOption: models.DeliveryOptionDelivery, DeliveryAddressID: &f.demo.HomeAddress.ID,
	})
	assert.ErrorIs(t, err, apperrors.ErrAddressNotFound)

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1)
}

func TestPickupOrderWithPaymentRef(t *testing.T) {
	f := setup(t)
	f.addBurger(t, 1, "")
	ref, invoice := "TX123", "FLW-9"

	order, err := f.checkout.PlaceOrder(context.Background(), f.customer, services.PlaceOrderInput{
		DeliveryOption:    models.DeliveryOptionPickup,
		PickupTime:        pickupAt(13),
		DeliveryAddressID: &f.demo.HomeAddress.ID,
		PaymentRef:        &ref,
		Invoice:           &invoice,
		Source:            "app:ios",
	})
	require.NoError(t, err)
	assert.True(t, order.PaymentStatus)
	assert.Equal(t, "app:ios", order.Source)
	assert.Nil(t, order.DeliveryAddressID)
	require.NotNil(t, order.PickupTime)
	assert.Equal(t, 13, order.PickupTime.UTC().Hour())
}

func TestPlacedOrderKeepsPricesAfterCatalogChange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addBurger(t, 2, "Large")
	order := f.placeDelivery(t)

	require.NoError(t, f.db.Model(&models.FoodItem{}).Where("id = ?", f.demo.Burger.ID).
		UpdateColumns(map[string]interface{}{"price": decimal.RequireFromString("9.00"), "name": "Big Burger"}).Error)
	require.NoError(t, f.db.Model(&models.Choice{}).Where("id = ?", f.demo.Large.ID).
		UpdateColumn("price_delta", decimal.RequireFromString("4.00")).Error)

	got, err := f.orders.Get(ctx, f.staff, order.Code)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	item := got.Items[0]
	assert.Equal(t, "5.00", item.UnitPrice.Decimal.StringFixed(2))
	assert.Equal(t, "Burger", item.Name())
	require.Len(t, item.Selections, 1)
	assert.Equal(t, "2.00", item.Selections[0].PriceDelta.Decimal.StringFixed(2))

	line := pricing.Line{BasePrice: item.BasePrice(), Quantity: item.Quantity, Deltas: []decimal.Decimal{item.Selections[0].Delta()}}
	total, err := pricing.LineTotal(line)
	require.NoError(t, err)
	assert.Equal(t, "12.00", total.StringFixed(2))
	assert.Equal(t, "12.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "22.26", got.Total.StringFixed(2))

	// a new cart line sees the new price
	f.addBurger(t, 1, "Large")
	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "13.00", view.Subtotal.StringFixed(2))
}

func codeSequence(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestOrderCodeCollisionRetries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.checkout.WithCodeGenerator(codeSequence("AAAAAAAA", "AAAAAAAA", "AAAAAAAA", "BBBBBBBB"))

	f.addBurger(t, 1, "")
	first := f.placeDelivery(t)
	assert.Equal(t, "AAAAAAAA", first.Code)

	f.addBurger(t, 1, "")
	second := f.placeDelivery(t)
	assert.Equal(t, "BBBBBBBB", second.Code)

	_, err := f.orders.Get(ctx, f.staff, "BBBBBBBB")
	assert.NoError(t, err)
}

func TestOrderCodeCollisionExhausted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	fees := config.NewFeeBook(pricing.DefaultFeeSchedule())
	checkout := services.NewCheckoutService(f.db, fees, nil, 3).WithCodeGenerator(codeSequence("CAFEBABE"))

	f.addBurger(t, 1, "")
	_, err := checkout.PlaceOrder(ctx, f.customer, services.PlaceOrderInput{
		DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(9),
	})
	require.NoError(t, err)

	f.addBurger(t, 1, "Large")
	_, err = checkout.PlaceOrder(ctx, f.customer, services.PlaceOrderInput{
		DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(9),
	})
	assert.ErrorIs(t, err, apperrors.ErrOrderIDCollision)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 1, "failed checkout must leave the cart untouched")

	var orders int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestPlaceOrderConcurrentWithAdds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.addBurger(t, 1, "")
	f.addBurger(t, 1, "Large")

	const adds = 6
	var wg sync.WaitGroup
	var order *models.Order
	var placeErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		order, placeErr = f.checkout.PlaceOrder(ctx, f.customer, services.PlaceOrderInput{
			DeliveryOption: models.DeliveryOptionPickup, PickupTime: pickupAt(18),
		})
	}()
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts.AddItem(ctx, f.customer, "fries", 1, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.NoError(t, placeErr)

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(order.Items), 2)
	assert.Equal(t, adds+2, len(order.Items)+len(view.Lines))

	var owned int64
	require.NoError(t, f.db.Model(&models.LineItem{}).
		Where("cart_id IS NOT NULL AND order_id IS NOT NULL").Count(&owned).Error)
	assert.Zero(t, owned)
}
