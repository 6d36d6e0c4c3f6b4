package repository

import (
	"context"

	"consulting-payments/internal/domain/model"
)

// ProductRepository is the boundary to the external catalog. Only the fields
// the contract issuer dispatches on are modeled here.
type ProductRepository interface {
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Product, error)
}
