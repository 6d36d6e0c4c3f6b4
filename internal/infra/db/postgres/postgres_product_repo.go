package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*productRepo)(nil)

type productRepo struct{ pool *pgxpool.Pool }

func NewProductRepo(pool *pgxpool.Pool) *productRepo {
	return &productRepo{pool: pool}
}

func (r *productRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	const q = `SELECT id, product_nm, product_price, product_type_code, term FROM pay_services WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	p := &model.Product{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.TypeCode, &p.Term); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
