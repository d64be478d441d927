package otp

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math"
	"time"

	"github.com/go-homeservices-api/internal/config"
	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/infrastructure/events"
	"github.com/go-homeservices-api/internal/pkg/id"
	"github.com/go-homeservices-api/internal/pkg/token"
)

type Service interface {
	// Issue sends a fresh code to req.Email and returns its lifetime in seconds.
	Issue(ctx context.Context, req domain.IssueOTPRequest) (int, error)
	// Verify consumes the code. Success is terminal for that code.
	Verify(ctx context.Context, req domain.VerifyOTPRequest) error
}

type otpStore interface {
	Put(ctx context.Context, o *domain.OTP) error
	ListUnused(ctx context.Context, email, purpose string) ([]domain.OTP, error)
	MarkUsed(ctx context.Context, otpID string) error
	Consume(ctx context.Context, otpID string, maxAttempts int) error
	IncrementAttempts(ctx context.Context, otpID string) error
	Delete(ctx context.Context, otpID string) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, html, text string) error
}

type ServiceDeps struct {
	OTPRepo   otpStore
	Mailer    mailer
	Publisher events.Publisher
	Config    config.OTPConfig
	Now       func() time.Time
}

type service struct {
	repo      otpStore
	mailer    mailer
	publisher events.Publisher
	cfg       config.OTPConfig
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
		repo:      deps.OTPRepo,
		mailer:    deps.Mailer,
		publisher: pub,
		cfg:       deps.Config,
		now:       now,
	}
}

func (s *service) Issue(ctx context.Context, req domain.IssueOTPRequest) (int, error) {
	email := domain.NormalizeEmail(req.Email)
	now := s.now().UTC()

	existing, err := s.repo.ListUnused(ctx, email, req.Purpose)
	if err != nil {
		return 0, err
	}
	// Records are newest first; only the newest valid one gates the resend.
	for i := range existing {
		o := &existing[i]
		if !o.IsValid(now, s.cfg.MaxAttempts) {
			continue
		}
		if elapsed := now.Sub(o.CreatedAt); elapsed < s.cfg.ResendInterval {
			wait := int(math.Ceil((s.cfg.ResendInterval - elapsed).Seconds()))
			return 0, &domain.RateLimitError{RetryAfter: wait}
		}
		break
	}
	// Retire every unused record, expired and exhausted ones included, so the
	// new code is the only one Verify can pick as a candidate.
	for i := range existing {
		o := &existing[i]
		if err := s.repo.MarkUsed(ctx, o.OTPID); err != nil && !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		slog.Info("superseded otp", "otp_id", o.OTPID, "purpose", req.Purpose)
	}

	code, err := token.NumericCode(s.cfg.Digits)
	if err != nil {
		return 0, err
	}
	expiresAt := now.Add(s.cfg.TTL)
	rec := &domain.OTP{
		OTPID:        id.NewAt(now),
		Email:        email,
		Purpose:      req.Purpose,
		EmailPurpose: domain.EmailPurposeKey(email, req.Purpose),
		Code:         code,
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
		PurgeAt:      expiresAt.Add(24 * time.Hour).Unix(),
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return 0, err
	}

	subject, htmlBody, textBody := renderEmail(req.DisplayName, code, s.cfg.TTL)
	if err := s.mailer.SendEmail(ctx, email, subject, htmlBody, textBody); err != nil {
		slog.Warn("otp delivery failed, rolling back", "otp_id", rec.OTPID, "err", err)
		if derr := s.repo.Delete(ctx, rec.OTPID); derr != nil {
			slog.Error("failed to delete undelivered otp", "otp_id", rec.OTPID, "err", derr)
		}
		return 0, fmt.Errorf("send verification email: %w", domain.ErrDeliveryFailed)
	}
	return int(s.cfg.TTL / time.Second), nil
}

func (s *service) Verify(ctx context.Context, req domain.VerifyOTPRequest) error {
	email := domain.NormalizeEmail(req.Email)
	now := s.now().UTC()

	records, err := s.repo.ListUnused(ctx, email, req.Purpose)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("invalid or expired code: %w", domain.ErrInvalidCode)
	}

	cand := &records[0]
	matched := false
	for i := range records {
		if records[i].Code == req.Code {
			cand = &records[i]
			matched = true
			break
		}
	}

	switch {
	case cand.IsUsed:
		return fmt.Errorf("code already used: %w", domain.ErrAlreadyUsed)
	case !now.Before(cand.ExpiresAt):
		return fmt.Errorf("code expired: %w", domain.ErrExpired)
	case cand.Attempts >= s.cfg.MaxAttempts:
		return fmt.Errorf("too many attempts: %w", domain.ErrAttemptsExceeded)
	}

	if !matched {
		if err := s.repo.IncrementAttempts(ctx, cand.OTPID); err != nil && !errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("invalid or expired code: %w", domain.ErrInvalidCode)
	}

	if err := s.repo.Consume(ctx, cand.OTPID, s.cfg.MaxAttempts); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("invalid or expired code: %w", domain.ErrInvalidCode)
		}
		return err
	}

	if err := s.publisher.Publish(ctx, events.SubjectOTPVerified, events.OTPVerified{
		Email:      email,
		Purpose:    req.Purpose,
		VerifiedAt: now,
	}); err != nil {
		slog.Warn("failed to publish otp.verified", "err", err)
	}
	return nil
}

func renderEmail(name, code string, ttl time.Duration) (subject, htmlBody, textBody string) {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	secs := int(ttl / time.Second)
	subject = "Your verification code"
	textBody = fmt.Sprintf("%s,\n\nYour verification code is %s. It expires in %d seconds.\n\nIf you did not request this code, ignore this email.", greeting, code, secs)
	htmlBody = fmt.Sprintf(`<p>%s,</p><p>Your verification code is <strong style="font-size:24px">%s</strong></p><p>It expires in %d seconds.</p><p>If you did not request this code, ignore this email.</p>`,
		html.EscapeString(greeting), code, secs)
	return subject, htmlBody, textBody
}
