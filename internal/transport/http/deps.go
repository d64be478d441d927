package http

import (
	"context"

	"github.com/go-homeservices-api/internal/domain"
)

// OTPRepository is the minimal interface the router requires from an OTP store.
type OTPRepository interface {
	Put(ctx context.Context, o *domain.OTP) error
	ListUnused(ctx context.Context, email, purpose string) ([]domain.OTP, error)
	MarkUsed(ctx context.Context, otpID string) error
	// Consume marks the record used only while it is unused and under maxAttempts.
	Consume(ctx context.Context, otpID string, maxAttempts int) error
	IncrementAttempts(ctx context.Context, otpID string) error
	Delete(ctx context.Context, otpID string) error
}

// CouponRepository is the minimal interface the router requires from a coupon store.
type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	Get(ctx context.Context, code string) (*domain.Coupon, error)
	Scan(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, code string, updates map[string]interface{}) error
	// Redeem appends the usage in a single conditional write.
	Redeem(ctx context.Context, code string, usage domain.CouponUsage) error
}

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	SetEnabled(ctx context.Context, userID string, enable bool) error
}

// BookingRepository is the minimal interface the router requires from a booking store.
type BookingRepository interface {
	Put(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status string) error
	Delete(ctx context.Context, bookingID string) error
}

// SettingsRepository is the minimal interface the router requires from the settings store.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Create(ctx context.Context, s *domain.Settings) error
	Update(ctx context.Context, updates map[string]interface{}) error
}

// Mailer delivers OTP emails.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html, text string) error
}
