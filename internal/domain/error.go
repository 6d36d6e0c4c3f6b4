package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyProcessed   = errors.New("order already processed")
	ErrPaymentIncomplete  = errors.New("payment not completed at gateway")
	ErrAmountMismatch     = errors.New("paid amount does not match order amount")
	ErrCouponExhausted    = errors.New("coupon has no remaining uses")
	ErrNotFreeCoupon      = errors.New("coupon discount is not 100 percent")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
