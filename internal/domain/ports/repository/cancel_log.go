package repository

import (
	"context"

	"consulting-payments/internal/domain/model"
)

// CancelLogRepository is write-only from the system's perspective; rows are
// read by operators during manual reconciliation.
type CancelLogRepository interface {
	Append(ctx context.Context, tx Tx, entry *model.CancelLog) error
}
