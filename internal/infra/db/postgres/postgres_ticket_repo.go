package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.TicketRepository = (*ticketRepo)(nil)

type ticketRepo struct{ pool *pgxpool.Pool }

func NewTicketRepo(pool *pgxpool.Pool) *ticketRepo {
	return &ticketRepo{pool: pool}
}

func (r *ticketRepo) Increment(ctx context.Context, tx repository.Tx, memberID int64) error {
	const q = `
INSERT INTO member_tickets (member_id, ticket_count, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (member_id) DO UPDATE
  SET ticket_count = member_tickets.ticket_count + 1, updated_at = NOW();`

	_, err := execSQL(ctx, r.pool, tx, q, memberID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ticketRepo) Decrement(ctx context.Context, tx repository.Tx, memberID int64) error {
	// Floored at zero: a compensating decrement after a manual adjustment must
	// not drive the counter negative.
	const q = `
UPDATE member_tickets
   SET ticket_count = ticket_count - 1, updated_at = NOW()
 WHERE member_id = $1 AND ticket_count > 0;`

	_, err := execSQL(ctx, r.pool, tx, q, memberID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ticketRepo) Count(ctx context.Context, tx repository.Tx, memberID int64) (int64, error) {
	const q = `SELECT ticket_count FROM member_tickets WHERE member_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
