package repository

import (
	"context"
	"time"

	"consulting-payments/internal/domain/model"
)

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.Order) error
	FindByMerchantUID(ctx context.Context, tx Tx, merchantUID string) (*model.Order, error)
	// CompleteIfPending flips a PENDING order to COMPLETE and writes the
	// gateway reference plus instrument metadata. Returns false when the order
	// was no longer PENDING (a concurrent verify/webhook won the race).
	CompleteIfPending(ctx context.Context, tx Tx, id string, impUID, cardName, cardNumber, pgProvider string) (bool, error)
	// UpdateState moves the order to a terminal state. cancelAmount is only
	// written for CANCEL transitions.
	UpdateState(ctx context.Context, tx Tx, id string, state model.OrderState, cancelAmount int64) error
	// ListByMember returns non-PENDING orders for payment history, newest first.
	ListByMember(ctx context.Context, tx Tx, memberID int64) ([]*model.Order, error)
	FindByMemberAndID(ctx context.Context, tx Tx, memberID int64, orderID string) (*model.Order, error)
	// ListPendingOlderThan feeds the stale-order reconciler.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Order, error)
}
