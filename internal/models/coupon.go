package models

import (
	"errors"
	"time"
)

// DiscountType distinguishes percentage from fixed-amount coupons.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon validation errors. The predicate here is the single source of truth
// for every code path that inspects a coupon.
var (
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// Coupon grants a discount on one course. Codes are stored uppercase and are
// unique per course.
type Coupon struct {
	ID            string       `db:"id" json:"id"`
	CourseID      string       `db:"course_id" json:"course_id"`
	Code          string       `db:"code" json:"code"`
	DiscountType  DiscountType `db:"discount_type" json:"discount_type"`
	DiscountValue float64      `db:"discount_value" json:"discount_value"`
	MaxUses       *int         `db:"max_uses" json:"max_uses,omitempty"`
	CurrentUses   int          `db:"current_uses" json:"current_uses"`
	ExpiresAt     *time.Time   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// Validate checks the coupon's own constraints: expiry and the usage cap.
func (c *Coupon) Validate(now time.Time) error {
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrCouponExpired
	}
	if c.MaxUses != nil && c.CurrentUses >= *c.MaxUses {
		return ErrCouponExhausted
	}
	return nil
}

// Apply computes the discounted price, clamped so it never goes negative.
func (c *Coupon) Apply(price float64) float64 {
	var final float64
	switch c.DiscountType {
	case DiscountPercentage:
		final = price * (1 - c.DiscountValue/100)
	case DiscountFixed:
		final = price - c.DiscountValue
	default:
		final = price
	}
	if final < 0 {
		final = 0
	}
	return final
}
