package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/infrastructure/events"
	"github.com/go-homeservices-api/internal/pkg/id"
)

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateBookingRequest) (*domain.Booking, error)
	ListMine(ctx context.Context, userID string) ([]domain.Booking, error)
	// Get returns the booking to its owner or to an admin.
	Get(ctx context.Context, userID, role, bookingID string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status string) (*domain.Booking, error)
}

type bookingStore interface {
	Put(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, bookingID string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status string) error
	Delete(ctx context.Context, bookingID string) error
}

type couponEngine interface {
	Validate(ctx context.Context, userID string, req domain.ValidateCouponRequest) (*domain.CouponQuote, error)
	Redeem(ctx context.Context, userID string, req domain.RedeemCouponRequest) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type ServiceDeps struct {
	BookingRepo bookingStore
	Coupons     couponEngine
	UserRepo    userStore
	SMSSender   smsSender // optional
	Publisher   events.Publisher
	Now         func() time.Time
}

type service struct {
	repo      bookingStore
	coupons   couponEngine
	users     userStore
	sms       smsSender
	publisher events.Publisher
	now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	pub := deps.Publisher
	if pub == nil {
		pub = events.Noop{}
	}
	return &service{
		repo:      deps.BookingRepo,
		coupons:   deps.Coupons,
		users:     deps.UserRepo,
		sms:       deps.SMSSender,
		publisher: pub,
		now:       now,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateBookingRequest) (*domain.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("login required to book a service: %w", domain.ErrUnauthenticated)
	}
	now := s.now().UTC()
	if !req.ScheduledAt.After(now) {
		return nil, fmt.Errorf("scheduled_at must be in the future: %w", domain.ErrValidation)
	}

	b := &domain.Booking{
		BookingID:   id.NewAt(now),
		UserID:      userID,
		ServiceName: strings.TrimSpace(req.ServiceName),
		ScheduledAt: req.ScheduledAt.UTC(),
		Address:     strings.TrimSpace(req.Address),
		Amount:      req.Amount,
		FinalAmount: req.Amount,
		Status:      domain.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	code := domain.NormalizeCouponCode(req.CouponCode)
	if code != "" {
		quote, err := s.coupons.Validate(ctx, userID, domain.ValidateCouponRequest{Code: code, Amount: req.Amount})
		if err != nil {
			return nil, err
		}
		b.CouponCode = quote.Code
		b.DiscountAmount = quote.DiscountAmount
		b.FinalAmount = quote.FinalAmount
	}

	if err := s.repo.Put(ctx, b); err != nil {
		return nil, err
	}

	if code != "" {
		if err := s.coupons.Redeem(ctx, userID, domain.RedeemCouponRequest{Code: code, BookingID: b.BookingID}); err != nil {
			slog.Warn("coupon redemption failed, rolling back booking", "booking_id", b.BookingID, "code", code, "err", err)
			if derr := s.repo.Delete(ctx, b.BookingID); derr != nil {
				slog.Error("failed to delete booking after redemption failure", "booking_id", b.BookingID, "err", derr)
			}
			return nil, err
		}
	}

	if err := s.publisher.Publish(ctx, events.SubjectBookingCreated, events.BookingCreated{
		BookingID:   b.BookingID,
		UserID:      b.UserID,
		ServiceName: b.ServiceName,
		ScheduledAt: b.ScheduledAt,
		FinalAmount: b.FinalAmount,
		CouponCode:  b.CouponCode,
		CreatedAt:   b.CreatedAt,
	}); err != nil {
		slog.Warn("failed to publish booking.created", "booking_id", b.BookingID, "err", err)
	}
	s.notify(ctx, b)
	return b, nil
}

// notify sends a best-effort confirmation SMS when the user has a phone number.
func (s *service) notify(ctx context.Context, b *domain.Booking) {
	if s.sms == nil || s.users == nil {
		return
	}
	u, err := s.users.Get(ctx, b.UserID)
	if err != nil {
		slog.Warn("booking sms skipped: user lookup failed", "user_id", b.UserID, "err", err)
		return
	}
	if u.Phone == nil || *u.Phone == "" {
		return
	}
	msg := fmt.Sprintf("Your %s booking is received for %s. Amount due: %.0f. Ref %s",
		b.ServiceName, b.ScheduledAt.Format("02 Jan 2006 15:04 MST"), b.FinalAmount, b.BookingID)
	if err := s.sms.SendSMS(ctx, *u.Phone, msg); err != nil {
		slog.Warn("booking sms failed", "booking_id", b.BookingID, "err", err)
	}
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("login required: %w", domain.ErrUnauthenticated)
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, role, bookingID string) (*domain.Booking, error) {
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID && role != domain.RoleAdmin {
		return nil, fmt.Errorf("booking belongs to another user: %w", domain.ErrForbidden)
	}
	return b, nil
}

func (s *service) UpdateStatus(ctx context.Context, bookingID, status string) (*domain.Booking, error) {
	switch status {
	case domain.BookingPending, domain.BookingConfirmed, domain.BookingCompleted, domain.BookingCancelled:
	default:
		return nil, fmt.Errorf("unknown booking status %q: %w", status, domain.ErrValidation)
	}
	if err := s.repo.UpdateStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	b, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.Publish(ctx, events.SubjectBookingStatusChanged, events.BookingStatusChanged{
		BookingID: b.BookingID,
		UserID:    b.UserID,
		Status:    b.Status,
		UpdatedAt: b.UpdatedAt,
	}); err != nil {
		slog.Warn("failed to publish booking.status_changed", "booking_id", b.BookingID, "err", err)
	}
	return b, nil
}
