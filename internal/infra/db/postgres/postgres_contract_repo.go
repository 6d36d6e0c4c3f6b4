package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.ContractRepository = (*contractRepo)(nil)

const contractColumns = `id, member_id, order_id, product_code, start_at, end_at, active, created_at, updated_at`

type contractRepo struct{ pool *pgxpool.Pool }

func NewContractRepo(pool *pgxpool.Pool) *contractRepo {
	return &contractRepo{pool: pool}
}

func (r *contractRepo) Save(ctx context.Context, tx repository.Tx, c *model.Contract) error {
	const q = `
INSERT INTO pay_contracts (` + contractColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.MemberID, c.OrderID, c.ProductCode, c.StartAt, c.EndAt, c.Active, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *contractRepo) FindByOrder(ctx context.Context, tx repository.Tx, orderID string, memberID int64) (*model.Contract, error) {
	q := `SELECT ` + contractColumns + ` FROM pay_contracts WHERE order_id=$1 AND member_id=$2`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, orderID, memberID)
	if err != nil {
		return nil, err
	}

	c := &model.Contract{}
	if err := row.Scan(&c.ID, &c.MemberID, &c.OrderID, &c.ProductCode, &c.StartAt, &c.EndAt,
		&c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

func (r *contractRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE pay_contracts SET active=FALSE, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *contractRepo) ListActiveCodes(ctx context.Context, tx repository.Tx, memberID int64) ([]string, error) {
	const q = `
SELECT DISTINCT product_code
  FROM pay_contracts
 WHERE member_id=$1 AND active=TRUE AND end_at > NOW();`

	rows, err := queryRows(ctx, r.pool, tx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
