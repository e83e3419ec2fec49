package fulfillment

import "errors"

var (
	// ErrFulfillmentFailed is returned once every attempt has failed and the
	// order has been compensated.
	ErrFulfillmentFailed = errors.New("order failed, balance restored")
	ErrAlreadyRefunded   = errors.New("order has already been refunded")

	// ErrDeliveredUnrecorded means the provider fulfilled the order but the
	// completion could not be written. The order is left processing and is
	// never refunded automatically.
	ErrDeliveredUnrecorded = errors.New("order delivered but completion not recorded")
)
