package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	err := New(ErrMissingRequiredOption, "option group %q is required", "size")

	assert.True(t, errors.Is(err, ErrMissingRequiredOption))
	assert.False(t, errors.Is(err, ErrUnknownChoice))
	assert.Equal(t, `option group "size" is required`, err.Error())
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("add item: %w", New(ErrLineItemNotFound, "line item 9 not found"))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "line_item_not_found", CodeOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal", CodeOf(errors.New("boom")))
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("failed to load cart", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load cart: connection reset", err.Error())
}
