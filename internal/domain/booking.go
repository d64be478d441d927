package domain

import "time"

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
)

type Booking struct {
	BookingID      string    `json:"id" dynamodbav:"booking_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	ServiceName    string    `json:"service_name" dynamodbav:"service_name"`
	ScheduledAt    time.Time `json:"scheduled_at" dynamodbav:"scheduled_at"`
	Address        string    `json:"address" dynamodbav:"address"`
	Amount         float64   `json:"amount" dynamodbav:"amount"`
	CouponCode     string    `json:"coupon_code,omitempty" dynamodbav:"coupon_code,omitempty"`
	DiscountAmount float64   `json:"discount_amount" dynamodbav:"discount_amount"`
	FinalAmount    float64   `json:"final_amount" dynamodbav:"final_amount"`
	Status         string    `json:"status" dynamodbav:"status"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateBookingRequest struct {
	ServiceName string    `json:"service_name" validate:"required,max=200"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Address     string    `json:"address" validate:"required,max=500"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	CouponCode  string    `json:"coupon_code"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
}
