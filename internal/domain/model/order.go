package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderState string

const (
	OrderStatePending  OrderState = "PENDING"  // pre-registered, awaiting gateway confirmation
	OrderStateComplete OrderState = "COMPLETE" // gateway confirmed and durably recorded
	OrderStateFailed   OrderState = "FAILED"   // gateway reported failure
	OrderStateCancel   OrderState = "CANCEL"   // refunded/voided after capture
)

// Order is one monetizable transaction attempt. Orders are never deleted;
// state transitions are the only mutations after pre-registration.
type Order struct {
	ID           string // ULID
	MerchantUID  string // externally unique reference, generated at pre-registration
	ImpUID       string // gateway-assigned reference, empty until charged
	State        OrderState
	PaidAmount   int64 // expected charge, fixed at pre-registration, in KRW
	CancelAmount int64
	MemberID     int64
	ProductID    int64
	CouponNumber string // captured at pre-registration; redeemed on completion
	CardName     string
	CardNumber   string
	PGProvider   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewMerchantUID returns "order-" plus a hyphen-stripped UUID, matching the
// reference format the checkout client pre-registers with the gateway.
func NewMerchantUID() string {
	return "order-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Terminal reports whether the order has left PENDING.
func (o *Order) Terminal() bool {
	return o.State != OrderStatePending
}

// CanComplete reports whether a PENDING->COMPLETE transition is allowed.
func (o *Order) CanComplete() bool {
	return o.State == OrderStatePending
}

// CanCancel reports whether the order may move to CANCEL. COMPLETE orders may
// be refunded after capture; PENDING orders can be voided before recording.
func (o *Order) CanCancel() bool {
	return o.State == OrderStatePending || o.State == OrderStateComplete
}
