package repository

import (
	"context"

	"consulting-payments/internal/domain/model"
)

type ContractRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Contract) error
	FindByOrder(ctx context.Context, tx Tx, orderID string, memberID int64) (*model.Contract, error)
	Deactivate(ctx context.Context, tx Tx, id string) error
	// ListActiveCodes returns the product codes of the member's currently
	// active, unexpired contracts (the "active services" set).
	ListActiveCodes(ctx context.Context, tx Tx, memberID int64) ([]string, error)
}

type TicketRepository interface {
	// Increment adds one ticket for the member, creating the counter row on
	// first grant.
	Increment(ctx context.Context, tx Tx, memberID int64) error
	// Decrement subtracts one ticket, floored at zero.
	Decrement(ctx context.Context, tx Tx, memberID int64) error
	Count(ctx context.Context, tx Tx, memberID int64) (int64, error)
}
