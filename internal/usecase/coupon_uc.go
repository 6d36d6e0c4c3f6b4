// File: internal/usecase/coupon_uc.go
package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"consulting-payments/internal/domain"
	"consulting-payments/internal/domain/model"
	"consulting-payments/internal/domain/ports/repository"
	"consulting-payments/internal/infra/metrics"
)

// Compile-time check
var _ CouponUseCase = (*couponUC)(nil)

// CouponValidation is the result of resolving a coupon against a product.
type CouponValidation struct {
	DiscountAmount  int64
	DiscountPercent int64
	Description     string
}

type CouponUseCase interface {
	// Valid resolves a coupon for a product and computes the discount amount.
	Valid(ctx context.Context, couponNumber string, productID int64) (*CouponValidation, error)
	// Use consumes one remaining use inside the caller's transaction, so the
	// decrement commits or rolls back together with the order completion.
	Use(ctx context.Context, tx repository.Tx, couponNumber string) (*model.Coupon, error)
}

type couponUC struct {
	coupons  repository.CouponRepository
	products repository.ProductRepository
	log      *zerolog.Logger
}

func NewCouponUseCase(coupons repository.CouponRepository, products repository.ProductRepository, logger *zerolog.Logger) *couponUC {
	return &couponUC{coupons: coupons, products: products, log: logger}
}

func (u *couponUC) Valid(ctx context.Context, couponNumber string, productID int64) (*CouponValidation, error) {
	product, err := u.products.FindByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}

	coupon, err := u.coupons.FindForProduct(ctx, nil, couponNumber, productID)
	if err != nil {
		return nil, err
	}
	if coupon.RemainingUses <= 0 {
		return nil, domain.ErrCouponExhausted
	}

	return &CouponValidation{
		DiscountAmount:  coupon.DiscountFor(product.Price),
		DiscountPercent: coupon.DiscountPercent,
		Description:     coupon.Description,
	}, nil
}

func (u *couponUC) Use(ctx context.Context, tx repository.Tx, couponNumber string) (*model.Coupon, error) {
	coupon, err := u.coupons.FindByNumber(ctx, tx, couponNumber)
	if err != nil {
		return nil, err
	}

	// Guarded decrement: the repository only affects a row while remaining
	// uses are positive, which makes concurrent redemption of the last use
	// resolve to exactly one winner.
	ok, err := u.coupons.DecrementUses(ctx, tx, couponNumber)
	if err != nil {
		return nil, fmt.Errorf("decrement coupon %s: %w", couponNumber, err)
	}
	if !ok {
		metrics.IncCouponRedemption("exhausted")
		return nil, domain.ErrCouponExhausted
	}

	metrics.IncCouponRedemption("used")
	coupon.RemainingUses--
	u.log.Debug().Str("coupon", couponNumber).Int64("remaining", coupon.RemainingUses).Msg("coupon redeemed")
	return coupon, nil
}
