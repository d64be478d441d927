package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/go-homeservices-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	// Register consumes a signup OTP and creates the account. It returns the
	// new user and a bearer token.
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	SetEnabled(ctx context.Context, userID string, enable bool) (*domain.User, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	SetEnabled(ctx context.Context, userID string, enable bool) error
}

type otpVerifier interface {
	Verify(ctx context.Context, req domain.VerifyOTPRequest) error
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type service struct {
	repo        userStore
	otp         otpVerifier
	jwtProvider jwtSigner
	adminEmails map[string]struct{}
}

type ServiceDeps struct {
	UserRepo    userStore
	OTP         otpVerifier
	JWTProvider jwtSigner
	AdminEmails []string
}

func NewService(deps ServiceDeps) Service {
	admins := make(map[string]struct{}, len(deps.AdminEmails))
	for _, e := range deps.AdminEmails {
		admins[domain.NormalizeEmail(e)] = struct{}{}
	}
	return &service{
		repo:        deps.UserRepo,
		otp:         deps.OTP,
		jwtProvider: deps.JWTProvider,
		adminEmails: admins,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, string, error) {
	email := domain.NormalizeEmail(req.Email)
	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, "", err
	}

	// The code is only consumed once the address is known to be free.
	if err := s.otp.Verify(ctx, domain.VerifyOTPRequest{
		Email:   email,
		Code:    req.OTP,
		Purpose: domain.OTPPurposeSignup,
	}); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	role := domain.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = domain.RoleAdmin
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:         id.New(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		Phone:          req.Phone,
		PasswordHash:   string(hash),
		Role:           role,
		EmailConfirmed: true,
		Enable:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, "", err
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, bearer, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) SetEnabled(ctx context.Context, userID string, enable bool) (*domain.User, error) {
	if err := s.repo.SetEnabled(ctx, userID, enable); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}
