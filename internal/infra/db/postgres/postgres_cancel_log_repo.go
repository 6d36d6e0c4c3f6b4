package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.CancelLogRepository = (*cancelLogRepo)(nil)

type cancelLogRepo struct{ pool *pgxpool.Pool }

func NewCancelLogRepo(pool *pgxpool.Pool) *cancelLogRepo {
	return &cancelLogRepo{pool: pool}
}

func (r *cancelLogRepo) Append(ctx context.Context, tx repository.Tx, e *model.CancelLog) error {
	const q = `
INSERT INTO pay_cancel_log (id, order_id, merchant_uid, imp_uid, amount, reason, cause_text, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.OrderID, e.MerchantUID, e.ImpUID, e.Amount, e.Reason, e.CauseText, e.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
