package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*orderRepo)(nil)

const orderColumns = `id, merchant_uid, imp_uid, state, paid_amount, cancel_amount, member_id, product_id, coupon_number, card_name, card_number, pg_provider, created_at, updated_at`

type orderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepo(pool *pgxpool.Pool) *orderRepo {
	return &orderRepo{pool: pool}
}

func (r *orderRepo) Save(ctx context.Context, tx repository.Tx, o *model.Order) error {
	const q = `
INSERT INTO pay_orders (` + orderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14);`

	_, err := execSQL(ctx, r.pool, tx, q,
		o.ID, o.MerchantUID, o.ImpUID, o.State, o.PaidAmount, o.CancelAmount,
		o.MemberID, o.ProductID, o.CouponNumber, o.CardName, o.CardNumber,
		o.PGProvider, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) FindByMerchantUID(ctx context.Context, tx repository.Tx, merchantUID string) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM pay_orders WHERE merchant_uid=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, merchantUID)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) CompleteIfPending(ctx context.Context, tx repository.Tx, id string, impUID, cardName, cardNumber, pgProvider string) (bool, error) {
	// State re-check inside the UPDATE is what serializes racing verify and
	// webhook handlers: exactly one caller sees an affected row.
	const q = `
UPDATE pay_orders
   SET state=$2, imp_uid=$3, card_name=$4, card_number=$5, pg_provider=$6, updated_at=NOW()
 WHERE id=$1 AND state=$7;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, model.OrderStateComplete, impUID, cardName, cardNumber, pgProvider, model.OrderStatePending)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepo) UpdateState(ctx context.Context, tx repository.Tx, id string, state model.OrderState, cancelAmount int64) error {
	const q = `
UPDATE pay_orders
   SET state=$2, cancel_amount=CASE WHEN $2='CANCEL' THEN $3 ELSE cancel_amount END, updated_at=NOW()
 WHERE id=$1;`

	_, err := execSQL(ctx, r.pool, tx, q, id, state, cancelAmount)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *orderRepo) ListByMember(ctx context.Context, tx repository.Tx, memberID int64) ([]*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM pay_orders WHERE member_id=$1 AND state <> 'PENDING' ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *orderRepo) FindByMemberAndID(ctx context.Context, tx repository.Tx, memberID int64, orderID string) (*model.Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM pay_orders WHERE member_id=$1 AND id=$2 AND state <> 'PENDING';`
	row, err := pickRow(ctx, r.pool, tx, q, memberID, orderID)
	if err != nil {
		return nil, err
	}
	return scanOrder(row)
}

func (r *orderRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + orderColumns + ` FROM pay_orders WHERE state='PENDING' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.MerchantUID, &o.ImpUID, &o.State, &o.PaidAmount, &o.CancelAmount,
		&o.MemberID, &o.ProductID, &o.CouponNumber, &o.CardName, &o.CardNumber,
		&o.PGProvider, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]*model.Order, error) {
	var out []*model.Order
	for rows.Next() {
		o := &model.Order{}
		if err := rows.Scan(&o.ID, &o.MerchantUID, &o.ImpUID, &o.State, &o.PaidAmount, &o.CancelAmount,
			&o.MemberID, &o.ProductID, &o.CouponNumber, &o.CardName, &o.CardNumber,
			&o.PGProvider, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
