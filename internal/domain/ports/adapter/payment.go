package adapter

import "context"

// PaymentInfo is the gateway's ground truth for a single transaction.
type PaymentInfo struct {
	ImpUID       string
	MerchantUID  string
	Status       string // "ready" | "paid" | "failed" | "cancelled"
	Amount       int64
	CancelAmount int64
	CardName     string
	CardNumber   string
	PGProvider   string
}

// Gateway transaction statuses as reported by the provider.
const (
	PaymentStatusReady     = "ready"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// PaymentGateway is the hex port for the external payment provider. Access
// token acquisition is an implementation detail behind this interface.
type PaymentGateway interface {
	// GetPaymentInfo queries the provider for the authoritative state of a
	// transaction. Transient transport failures are retried internally with
	// bounded backoff before surfacing ErrGatewayUnavailable.
	GetPaymentInfo(ctx context.Context, impUID string) (*PaymentInfo, error)
	// FindPaymentByMerchantUID looks a transaction up by the merchant
	// reference. Used by reconciliation, where the local order may never have
	// received the gateway-assigned reference.
	FindPaymentByMerchantUID(ctx context.Context, merchantUID string) (*PaymentInfo, error)
	// CancelPayment issues a refund/void for a captured transaction. reason is
	// the operator-facing cause recorded alongside the cancellation.
	CancelPayment(ctx context.Context, impUID, merchantUID, reason string) (*PaymentInfo, error)
}
