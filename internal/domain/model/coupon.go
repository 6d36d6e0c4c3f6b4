package model

import "time"

// Coupon is a discount instrument with a finite number of uses. A coupon may
// be scoped to a single product; ProductID == nil means it applies to all.
type Coupon struct {
	ID              int64
	CouponNumber    string // human-entered code
	Description     string
	DiscountPercent int64 // 0..100
	RemainingUses   int64
	ProductID       *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DiscountFor computes the discount the coupon yields against a product price.
func (c *Coupon) DiscountFor(price int64) int64 {
	return price * c.DiscountPercent / 100
}

// Free reports whether the coupon covers the full price.
func (c *Coupon) Free() bool {
	return c.DiscountPercent == 100
}
