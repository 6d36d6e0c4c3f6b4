package model

import "time"

// CancelLog is the durable audit record of a compensating gateway
// cancellation. Append-only; one row per cancel attempt.
type CancelLog struct {
	ID          string // ULID
	OrderID     string
	MerchantUID string
	ImpUID      string
	Amount      int64
	Reason      string
	CauseText   string // originating error, if the cancel compensated a local failure
	CreatedAt   time.Time
}
