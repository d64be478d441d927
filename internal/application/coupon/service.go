package coupon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/infrastructure/events"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldDescription        = "description"
	fieldDiscountPercentage = "discount_percentage"
	fieldStartDate          = "start_date"
	fieldExpiryDate         = "expiry_date"
	fieldIsActive           = "is_active"
)

type Service interface {
	// Validate quotes the discount for amount without redeeming anything.
	Validate(ctx context.Context, userID string, req domain.ValidateCouponRequest) (*domain.CouponQuote, error)
	// Redeem records that userID used the coupon for a booking.
	Redeem(ctx context.Context, userID string, req domain.RedeemCouponRequest) error

	Create(ctx context.Context, req domain.CreateCouponRequest) (*domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Get(ctx context.Context, code string) (*domain.Coupon, error)
	Update(ctx context.Context, code string, req domain.UpdateCouponRequest) (*domain.Coupon, error)
}

type couponStore interface {
	Create(ctx context.Context, c *domain.Coupon) error
	Get(ctx context.Context, code string) (*domain.Coupon, error)
	Scan(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, code string, updates map[string]interface{}) error
	Redeem(ctx context.Context, code string, usage domain.CouponUsage) error
}

type ServiceDeps struct {
	CouponRepo couponStore
	Publisher  events.Publisher
	Now        func() time.Time
}

type service struct {
	repo      couponStore
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
	return &service{repo: deps.CouponRepo, publisher: pub, now: now}
}

// activeCoupon loads a coupon and hides inactive ones behind ErrNotFound.
func (s *service) activeCoupon(ctx context.Context, code string) (*domain.Coupon, error) {
	c, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, fmt.Errorf("coupon not found: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *service) Validate(ctx context.Context, userID string, req domain.ValidateCouponRequest) (*domain.CouponQuote, error) {
	if userID == "" {
		return nil, fmt.Errorf("login required to apply a coupon: %w", domain.ErrUnauthenticated)
	}
	code := domain.NormalizeCouponCode(req.Code)
	if code == "" || req.Amount <= 0 {
		return nil, fmt.Errorf("code and a positive amount are required: %w", domain.ErrValidation)
	}
	c, err := s.activeCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := c.CheckWindow(s.now()); err != nil {
		if errors.Is(err, domain.ErrNotYetActive) {
			return nil, fmt.Errorf("coupon is not active yet: %w", err)
		}
		return nil, fmt.Errorf("coupon has expired: %w", err)
	}
	if c.UsedByUser(userID) {
		return nil, fmt.Errorf("you have already used this coupon: %w", domain.ErrAlreadyUsed)
	}
	discount := c.DiscountFor(req.Amount)
	return &domain.CouponQuote{
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		DiscountAmount:     discount,
		OriginalAmount:     req.Amount,
		FinalAmount:        req.Amount - discount,
		Description:        c.Description,
	}, nil
}

func (s *service) Redeem(ctx context.Context, userID string, req domain.RedeemCouponRequest) error {
	code := domain.NormalizeCouponCode(req.Code)
	bookingID := strings.TrimSpace(req.BookingID)
	if code == "" || userID == "" || bookingID == "" {
		return fmt.Errorf("code, user and booking are required: %w", domain.ErrInvalidRequest)
	}
	c, err := s.activeCoupon(ctx, code)
	if err != nil {
		return err
	}
	if c.UsedByUser(userID) {
		return fmt.Errorf("you have already used this coupon: %w", domain.ErrAlreadyUsed)
	}

	usage := domain.CouponUsage{UserID: userID, BookingID: bookingID, UsedAt: s.now().UTC()}
	if err := s.repo.Redeem(ctx, code, usage); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
		// The conditional write lost to a concurrent change; report what changed.
		if _, gerr := s.activeCoupon(ctx, code); gerr != nil {
			return gerr
		}
		return fmt.Errorf("you have already used this coupon: %w", domain.ErrAlreadyUsed)
	}

	if err := s.publisher.Publish(ctx, events.SubjectCouponRedeemed, events.CouponRedeemed{
		Code:      code,
		UserID:    userID,
		BookingID: bookingID,
		UsedAt:    usage.UsedAt,
	}); err != nil {
		slog.Warn("failed to publish coupon.redeemed", "code", code, "err", err)
	}
	return nil
}

func (s *service) Create(ctx context.Context, req domain.CreateCouponRequest) (*domain.Coupon, error) {
	if req.StartDate.After(req.ExpiryDate) {
		return nil, fmt.Errorf("start_date must not be after expiry_date: %w", domain.ErrValidation)
	}
	if req.DiscountPercentage < 0 || req.DiscountPercentage > 100 {
		return nil, fmt.Errorf("discount_percentage must be between 0 and 100: %w", domain.ErrValidation)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	now := s.now().UTC()
	c := &domain.Coupon{
		Code:               domain.NormalizeCouponCode(req.Code),
		Description:        strings.TrimSpace(req.Description),
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           active,
		StartDate:          req.StartDate.UTC(),
		ExpiryDate:         req.ExpiryDate.UTC(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) List(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].CreatedAt.After(coupons[j].CreatedAt) })
	return coupons, nil
}

func (s *service) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.repo.Get(ctx, domain.NormalizeCouponCode(code))
}

func (s *service) Update(ctx context.Context, code string, req domain.UpdateCouponRequest) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	c, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Description != nil {
		updates[fieldDescription] = strings.TrimSpace(*req.Description)
	}
	if req.DiscountPercentage != nil {
		if *req.DiscountPercentage < 0 || *req.DiscountPercentage > 100 {
			return nil, fmt.Errorf("discount_percentage must be between 0 and 100: %w", domain.ErrValidation)
		}
		updates[fieldDiscountPercentage] = *req.DiscountPercentage
	}
	start, expiry := c.StartDate, c.ExpiryDate
	if req.StartDate != nil {
		start = req.StartDate.UTC()
		updates[fieldStartDate] = start
	}
	if req.ExpiryDate != nil {
		expiry = req.ExpiryDate.UTC()
		updates[fieldExpiryDate] = expiry
	}
	if start.After(expiry) {
		return nil, fmt.Errorf("start_date must not be after expiry_date: %w", domain.ErrValidation)
	}
	if req.IsActive != nil {
		updates[fieldIsActive] = *req.IsActive
	}
	if len(updates) == 0 {
		return c, nil
	}
	if err := s.repo.Update(ctx, code, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, code)
}
