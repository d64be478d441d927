package domain

import (
	"math"
	"strings"
	"time"
)

// Coupon is a percentage discount code. PK: code (upper-cased).
// RedeemedUserIDs mirrors the user IDs in UsedBy as a string set so that
// redemption can be guarded by a single conditional write.
type Coupon struct {
	Code               string        `json:"code" dynamodbav:"code"`
	Description        string        `json:"description" dynamodbav:"description"`
	DiscountPercentage float64       `json:"discount_percentage" dynamodbav:"discount_percentage"`
	IsActive           bool          `json:"is_active" dynamodbav:"is_active"`
	StartDate          time.Time     `json:"start_date" dynamodbav:"start_date"`
	ExpiryDate         time.Time     `json:"expiry_date" dynamodbav:"expiry_date"`
	UsedBy             []CouponUsage `json:"used_by" dynamodbav:"used_by,omitempty"`
	RedeemedUserIDs    []string      `json:"-" dynamodbav:"redeemed_user_ids,stringset,omitempty"`
	UsageCount         int           `json:"usage_count" dynamodbav:"usage_count"`
	CreatedAt          time.Time     `json:"created" dynamodbav:"created_at"`
	UpdatedAt          time.Time     `json:"updated" dynamodbav:"updated_at"`
}

// CouponUsage records one redemption.
type CouponUsage struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	BookingID string    `json:"booking_id" dynamodbav:"booking_id"`
	UsedAt    time.Time `json:"used_at" dynamodbav:"used_at"`
}

// UsedByUser reports whether userID already redeemed the coupon.
func (c *Coupon) UsedByUser(userID string) bool {
	for _, u := range c.UsedBy {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// CheckWindow returns ErrNotYetActive or ErrExpired when now is outside [StartDate, ExpiryDate].
func (c *Coupon) CheckWindow(now time.Time) error {
	if now.Before(c.StartDate) {
		return ErrNotYetActive
	}
	if now.After(c.ExpiryDate) {
		return ErrExpired
	}
	return nil
}

// DiscountFor rounds to the nearest whole currency unit.
func (c *Coupon) DiscountFor(amount float64) float64 {
	return math.Round(amount * c.DiscountPercentage / 100)
}

// NormalizeCouponCode trims and upper-cases a code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CouponQuote is the read-only result of validating a coupon against an amount.
type CouponQuote struct {
	Code               string  `json:"code"`
	DiscountPercentage float64 `json:"discount_percentage"`
	DiscountAmount     float64 `json:"discount_amount"`
	OriginalAmount     float64 `json:"original_amount"`
	FinalAmount        float64 `json:"final_amount"`
	Description        string  `json:"description"`
}

type ValidateCouponRequest struct {
	Code   string  `json:"code" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type RedeemCouponRequest struct {
	Code      string `json:"code"`
	BookingID string `json:"booking_id"`
}

type CreateCouponRequest struct {
	Code               string    `json:"code" validate:"required,couponcode"`
	Description        string    `json:"description" validate:"max=500"`
	DiscountPercentage float64   `json:"discount_percentage" validate:"min=0,max=100"`
	StartDate          time.Time `json:"start_date" validate:"required"`
	ExpiryDate         time.Time `json:"expiry_date" validate:"required"`
	IsActive           *bool     `json:"is_active"`
}

// UpdateCouponRequest lists every field an administrator may patch.
// Redemption history is not patchable.
type UpdateCouponRequest struct {
	Description        *string    `json:"description" validate:"omitempty,max=500"`
	DiscountPercentage *float64   `json:"discount_percentage" validate:"omitempty,min=0,max=100"`
	StartDate          *time.Time `json:"start_date"`
	ExpiryDate         *time.Time `json:"expiry_date"`
	IsActive           *bool      `json:"is_active"`
}
