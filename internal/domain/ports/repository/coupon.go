package repository

import (
	"context"

	"consulting-payments/internal/domain/model"
)

type CouponRepository interface {
	FindByNumber(ctx context.Context, tx Tx, couponNumber string) (*model.Coupon, error)
	// FindForProduct resolves a coupon scoped to the product, falling back to
	// a product-agnostic coupon when no scoped one exists.
	FindForProduct(ctx context.Context, tx Tx, couponNumber string, productID int64) (*model.Coupon, error)
	// DecrementUses performs a guarded decrement: it only succeeds while
	// remaining uses are positive, and reports whether a row was affected.
	// Callers treat false as coupon exhaustion.
	DecrementUses(ctx context.Context, tx Tx, couponNumber string) (bool, error)
}
