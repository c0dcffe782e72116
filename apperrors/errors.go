package apperrors

import (
	"errors"
	"fmt"
)

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation"
	KindIllegalStateTransition Kind = "illegal_state_transition"
	KindConflict               Kind = "conflict"
	KindUnauthorized           Kind = "unauthorized"
	KindInternal               Kind = "internal"
)

// Error is the structured failure returned by the ordering core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinel values below work with errors.Is
// regardless of the message a particular failure carries.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels, compare with errors.Is.
var (
	ErrItemNotFound          = &Error{Kind: KindNotFound, Code: "item_not_found", Message: "food item not found"}
	ErrCartNotFound          = &Error{Kind: KindNotFound, Code: "cart_not_found", Message: "cart not found"}
	ErrLineItemNotFound      = &Error{Kind: KindNotFound, Code: "line_item_not_found", Message: "line item not found in this cart"}
	ErrOrderNotFound         = &Error{Kind: KindNotFound, Code: "order_not_found", Message: "order not found"}
	ErrBranchNotFound        = &Error{Kind: KindNotFound, Code: "branch_not_found", Message: "branch not found"}
	ErrCustomerNotFound      = &Error{Kind: KindNotFound, Code: "customer_not_found", Message: "customer not found"}
	ErrAddressNotFound       = &Error{Kind: KindNotFound, Code: "address_not_found", Message: "delivery address not found"}
	ErrUnknownOptionGroup    = &Error{Kind: KindNotFound, Code: "unknown_option_group", Message: "unknown option group"}
	ErrUnknownChoice         = &Error{Kind: KindNotFound, Code: "unknown_choice", Message: "unknown choice"}
	ErrMissingRequiredOption = &Error{Kind: KindValidation, Code: "missing_required_option", Message: "missing required option"}
	ErrInvalidQuantity       = &Error{Kind: KindValidation, Code: "invalid_quantity", Message: "quantity must be at least 1"}
	ErrItemUnavailable       = &Error{Kind: KindValidation, Code: "item_unavailable", Message: "food item is not available"}
	ErrMissingDelivery       = &Error{Kind: KindValidation, Code: "missing_delivery_details", Message: "missing delivery details"}
	ErrInvalidDeliveryOption = &Error{Kind: KindValidation, Code: "invalid_delivery_option", Message: "delivery option must be delivery or pickup"}
	ErrEmptyCart             = &Error{Kind: KindValidation, Code: "empty_cart", Message: "cart has no line items"}
	ErrFieldTooLong          = &Error{Kind: KindValidation, Code: "field_too_long", Message: "field is too long"}
	ErrInvalidPricingState   = &Error{Kind: KindValidation, Code: "invalid_pricing_state", Message: "line total would be negative"}
	ErrIllegalTransition     = &Error{Kind: KindIllegalStateTransition, Code: "illegal_transition", Message: "illegal order status transition"}
	ErrOrderCanceled         = &Error{Kind: KindIllegalStateTransition, Code: "order_canceled", Message: "order is canceled"}
	ErrOrderIDCollision      = &Error{Kind: KindConflict, Code: "order_id_collision", Message: "could not allocate a unique order id"}
	ErrConcurrentUpdate      = &Error{Kind: KindConflict, Code: "concurrent_update", Message: "record was changed by another request"}
	ErrUnauthorized          = &Error{Kind: KindUnauthorized, Code: "unauthorized", Message: "not allowed"}
)

// New returns a copy of the sentinel carrying a specific message.
func New(sentinel *Error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal wraps an unexpected failure, typically from the storage layer.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message, Err: err}
}

// KindOf reports the kind of err, KindInternal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err, "internal" for anything untyped.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}
