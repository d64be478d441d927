package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectOTPVerified          = "otp.verified"
	SubjectBookingCreated       = "booking.created"
	SubjectBookingStatusChanged = "booking.status_changed"
	SubjectCouponRedeemed       = "coupon.redeemed"
)

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type natsPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url. The connection reconnects on its own.
func NewNATSPublisher(url string) (Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("homeservices-api"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &natsPublisher{conn: conn}, nil
}

func (n *natsPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", subject, err)
	}
	slog.DebugContext(ctx, "publishing event", "subject", subject)
	return n.conn.Publish(subject, payload)
}

func (n *natsPublisher) Close() error {
	return n.conn.Drain()
}

// Noop discards every event. Used when NATS_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                       { return nil }

// OTPVerified is the payload of SubjectOTPVerified.
type OTPVerified struct {
	Email      string    `json:"email"`
	Purpose    string    `json:"purpose"`
	VerifiedAt time.Time `json:"verified_at"`
}

// BookingCreated is the payload of SubjectBookingCreated.
type BookingCreated struct {
	BookingID   string    `json:"booking_id"`
	UserID      string    `json:"user_id"`
	ServiceName string    `json:"service_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
	FinalAmount float64   `json:"final_amount"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingStatusChanged is the payload of SubjectBookingStatusChanged.
type BookingStatusChanged struct {
	BookingID string    `json:"booking_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CouponRedeemed is the payload of SubjectCouponRedeemed.
type CouponRedeemed struct {
	Code      string    `json:"code"`
	UserID    string    `json:"user_id"`
	BookingID string    `json:"booking_id"`
	UsedAt    time.Time `json:"used_at"`
}
