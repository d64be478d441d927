package session

import (
	"context"
	"errors"
	"testing"

	"github.com/go-homeservices-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newService(us *mockUserStore, jwt *mockJWTSigner) Service {
	return NewService(ServiceDeps{UserRepo: us, JWTProvider: jwt})
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, err := newService(us, nil).Login(context.Background(), domain.LoginRequest{Email: "Ghost@example.com", Password: "x"})

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{UserID: "u1", Enable: true, PasswordHash: hashed(t, "password123")}, nil)

	_, err := newService(us, nil).Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "nope"})

	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_DisabledAccount(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{UserID: "u1", Enable: false, PasswordHash: hashed(t, "password123")}, nil)
	jwt := &mockJWTSigner{}

	_, err := newService(us, jwt).Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.Contains(t, err.Error(), "disabled")
	jwt.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything)
}

func TestLogin_StoreErrorSurfaces(t *testing.T) {
	us := &mockUserStore{}
	boom := errors.New("RequestLimitExceeded")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, boom)

	_, err := newService(us, nil).Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestLogin_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	u := &domain.User{UserID: "u1", Role: domain.RoleAdmin, Enable: true, PasswordHash: hashed(t, "password123")}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", "u1", domain.RoleAdmin).Return("signed", nil)

	res, err := newService(us, jwt).Login(context.Background(), domain.LoginRequest{Email: "alice@example.com", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "signed", res.Bearer)
	assert.Equal(t, u, res.User)
	jwt.AssertExpectations(t)
}
