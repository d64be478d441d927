package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-homeservices-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Bearer string
	User   *domain.User
}

type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

type ServiceDeps struct {
	UserRepo    userStore
	JWTProvider jwtSigner
}

type service struct {
	userRepo    userStore
	jwtProvider jwtSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{userRepo: deps.UserRepo, jwtProvider: deps.JWTProvider}
}

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	u, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}
	if !u.Enable {
		slog.Info("login rejected for disabled account", "user_id", u.UserID)
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	bearer, err := s.jwtProvider.Sign(u.UserID, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Bearer: bearer, User: u}, nil
}
