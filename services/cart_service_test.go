package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/shagomeals/apperrors"
	"github.com/yeremiapane/shagomeals/models"
)

func TestCartScenarioSubtotal(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addBurger(t, 2, "Large")
	f.addBurger(t, 1, "")

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	// newest first
	assert.Equal(t, "5.00", view.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "Small", view.Lines[0].Selections[0].ChoiceName)
	assert.Equal(t, "12.00", view.Lines[1].LineTotal.StringFixed(2))
	assert.Equal(t, "17.00", view.Subtotal.StringFixed(2))
}

func TestAddItemDoesNotMerge(t *testing.T) {
	f := setup(t)

	first := f.addBurger(t, 1, "Large")
	second := f.addBurger(t, 1, "Large")
	assert.NotEqual(t, first.ID, second.ID)

	view, err := f.carts.View(context.Background(), f.customer)
	require.NoError(t, err)
	assert.Len(t, view.Lines, 2)
}

func TestAddItemFailuresLeaveNoLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		item    string
		qty     int
		choices map[string]string
		want    *apperrors.Error
	}{
		{"unknown item", "pizza", 1, nil, apperrors.ErrItemNotFound},
		{"unavailable item", "suya-wrap", 1, nil, apperrors.ErrItemUnavailable},
		{"zero quantity", "burger", 0, nil, apperrors.ErrInvalidQuantity},
		{"unknown group", "burger", 1, map[string]string{"cheese": "Cheddar"}, apperrors.ErrUnknownOptionGroup},
		{"unknown choice", "burger", 1, map[string]string{"size": "Huge"}, apperrors.ErrUnknownChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.carts.AddItem(ctx, f.customer, tt.item, tt.qty, tt.choices)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var lines int64
	require.NoError(t, f.db.Model(&models.LineItem{}).Count(&lines).Error)
	assert.Zero(t, lines)
	var selections int64
	require.NoError(t, f.db.Model(&models.LineItemSelection{}).Count(&selections).Error)
	assert.Zero(t, selections)
}

func TestAddItemFromHiddenMenu(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&f.demo.Branch).UpdateColumn("menu_visible", false).Error)

	_, err := f.carts.AddItem(ctx, f.customer, "burger", 1, map[string]string{"size": "Large"})
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)
	_, err = f.carts.AddItem(ctx, f.customer, "fries", 1, nil)
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)

	var lines int64
	require.NoError(t, f.db.Model(&models.LineItem{}).Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestOptionalGroupWithoutSelection(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, f.customer, "fries", 2, nil)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, f.customer, "fries", 1, map[string]string{"dip": "Mayo"})
	require.NoError(t, err)

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "3.00", view.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "5.00", view.Lines[1].LineTotal.StringFixed(2))
	assert.Equal(t, "8.00", view.Subtotal.StringFixed(2))
}

func TestChangeQuantityFloor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line := f.addBurger(t, 1, "")

	_, err := f.carts.ChangeQuantity(ctx, f.customer, line.ID, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

	updated, err := f.carts.ChangeQuantity(ctx, f.customer, line.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Quantity)

	updated, err = f.carts.ChangeQuantity(ctx, f.customer, line.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	_, err = f.carts.ChangeQuantity(ctx, f.customer, line.ID+99, 1)
	assert.ErrorIs(t, err, apperrors.ErrLineItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line := f.addBurger(t, 1, "Large")

	other := f.otherCustomer(t)
	_, err := f.carts.View(ctx, other)
	require.NoError(t, err)
	assert.ErrorIs(t, f.carts.RemoveItem(ctx, other, line.ID), apperrors.ErrLineItemNotFound)

	require.NoError(t, f.carts.RemoveItem(ctx, f.customer, line.ID))
	assert.ErrorIs(t, f.carts.RemoveItem(ctx, f.customer, line.ID), apperrors.ErrLineItemNotFound)

	var selections int64
	require.NoError(t, f.db.Model(&models.LineItemSelection{}).Where("line_item_id = ?", line.ID).Count(&selections).Error)
	assert.Zero(t, selections)
}

func TestRemoveWithoutCart(t *testing.T) {
	f := setup(t)

	err := f.carts.RemoveItem(context.Background(), f.customer, 1)
	assert.ErrorIs(t, err, apperrors.ErrCartNotFound)
}

func TestUpdateChoices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line := f.addBurger(t, 1, "Large")

	_, err := f.carts.UpdateChoices(ctx, f.customer, line.ID, map[string]string{"size": "Huge"})
	assert.ErrorIs(t, err, apperrors.ErrUnknownChoice)

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "7.00", view.Subtotal.StringFixed(2))

	updated, err := f.carts.UpdateChoices(ctx, f.customer, line.ID, nil)
	require.NoError(t, err)
	require.Len(t, updated.Selections, 1)
	assert.Equal(t, "Small", updated.Selections[0].ChoiceName)

	view, err = f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Equal(t, "5.00", view.Subtotal.StringFixed(2))
}

func TestCustomerRequired(t *testing.T) {
	f := setup(t)

	_, err := f.carts.AddItem(context.Background(), f.staff, "burger", 1, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 8
	ids := make([]uint, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cart, err := f.carts.GetOrCreate(ctx, f.customer)
			errs[i] = err
			if err == nil {
				ids[i] = cart.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var carts int64
	require.NoError(t, f.db.Model(&models.Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestConcurrentAddsKeepEveryLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.carts.AddItem(ctx, f.customer, "burger", 1, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	view, err := f.carts.View(ctx, f.customer)
	require.NoError(t, err)
	assert.Len(t, view.Lines, n)
	assert.Equal(t, "50.00", view.Subtotal.StringFixed(2))
}
