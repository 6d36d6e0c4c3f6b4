package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.CouponRepository = (*couponRepo)(nil)

const couponColumns = `id, coupon_number, description, discount_percent, remaining_uses, product_id, created_at, updated_at`

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

func (r *couponRepo) FindByNumber(ctx context.Context, tx repository.Tx, couponNumber string) (*model.Coupon, error) {
	q := `SELECT ` + couponColumns + ` FROM pay_coupons WHERE coupon_number=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, couponNumber)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

func (r *couponRepo) FindForProduct(ctx context.Context, tx repository.Tx, couponNumber string, productID int64) (*model.Coupon, error) {
	// Product-scoped coupons shadow product-agnostic ones with the same number.
	const q = `
SELECT ` + couponColumns + `
  FROM pay_coupons
 WHERE coupon_number=$1 AND (product_id=$2 OR product_id IS NULL)
 ORDER BY product_id NULLS LAST
 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, couponNumber, productID)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

func (r *couponRepo) DecrementUses(ctx context.Context, tx repository.Tx, couponNumber string) (bool, error) {
	// Guarded decrement: the WHERE clause keeps the counter non-negative under
	// concurrent redemption; the affected-row count tells the caller who won.
	const q = `
UPDATE pay_coupons
   SET remaining_uses = remaining_uses - 1, updated_at = NOW()
 WHERE coupon_number = $1 AND remaining_uses > 0;`

	tag, err := execSQL(ctx, r.pool, tx, q, couponNumber)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return tag.RowsAffected() == 1, nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	if err := row.Scan(&c.ID, &c.CouponNumber, &c.Description, &c.DiscountPercent,
		&c.RemainingUses, &c.ProductID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}
