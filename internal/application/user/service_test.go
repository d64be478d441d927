package user

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
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) SetEnabled(ctx context.Context, userID string, enable bool) error {
	return m.Called(ctx, userID, enable).Error(0)
}

type mockOTPVerifier struct{ mock.Mock }

func (m *mockOTPVerifier) Verify(ctx context.Context, req domain.VerifyOTPRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newService(us *mockUserStore, ov *mockOTPVerifier, jwt *mockJWTSigner, admins ...string) Service {
	return NewService(ServiceDeps{
		UserRepo:    us,
		OTP:         ov,
		JWTProvider: jwt,
		AdminEmails: admins,
	})
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "password123",
		OTP:      "123456",
	}
}

var signupOTP = domain.VerifyOTPRequest{Email: "alice@example.com", Code: "123456", Purpose: domain.OTPPurposeSignup}

// --- Register ---

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)
	ov := &mockOTPVerifier{}

	_, _, err := newService(us, ov, nil).Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	ov.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestRegister_LookupErrorSurfaces(t *testing.T) {
	us := &mockUserStore{}
	boom := errors.New("throttled")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, boom)

	_, _, err := newService(us, &mockOTPVerifier{}, nil).Register(context.Background(), baseReq())
	assert.ErrorIs(t, err, boom)
}

func TestRegister_OTPRejected(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	ov := &mockOTPVerifier{}
	ov.On("Verify", mock.Anything, signupOTP).Return(domain.ErrExpired)

	_, _, err := newService(us, ov, nil).Register(context.Background(), baseReq())

	assert.True(t, errors.Is(err, domain.ErrExpired))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	ov := &mockOTPVerifier{}
	ov.On("Verify", mock.Anything, signupOTP).Return(nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", mock.AnythingOfType("string"), domain.RoleUser).Return("bearer-token", nil)

	u, bearer, err := newService(us, ov, jwt).Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, "bearer-token", bearer)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.Enable)
	assert.True(t, u.EmailConfirmed)
	assert.NotEmpty(t, u.UserID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")))
	us.AssertExpectations(t)
	ov.AssertExpectations(t)
	jwt.AssertExpectations(t)
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.Anything).Return(nil)
	ov := &mockOTPVerifier{}
	ov.On("Verify", mock.Anything, signupOTP).Return(nil)
	jwt := &mockJWTSigner{}
	jwt.On("Sign", mock.Anything, domain.RoleAdmin).Return("t", nil)

	u, _, err := newService(us, ov, jwt, "ALICE@example.com").Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

// --- List / SetEnabled ---

func TestList_ClampsLimit(t *testing.T) {
	us := &mockUserStore{}
	us.On("ScanPage", mock.Anything, int32(50), "").Return([]domain.User{{UserID: "u1"}}, "next", nil)

	users, next, err := newService(us, nil, nil).List(context.Background(), 0, "")

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "next", next)
	us.AssertExpectations(t)
}

func TestSetEnabled_ReturnsFreshUser(t *testing.T) {
	us := &mockUserStore{}
	us.On("SetEnabled", mock.Anything, "u1", false).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Enable: false}, nil)

	u, err := newService(us, nil, nil).SetEnabled(context.Background(), "u1", false)

	require.NoError(t, err)
	assert.False(t, u.Enable)
	us.AssertExpectations(t)
}

func TestSetEnabled_NotFound(t *testing.T) {
	us := &mockUserStore{}
	us.On("SetEnabled", mock.Anything, "nope", true).Return(domain.ErrNotFound)

	_, err := newService(us, nil, nil).SetEnabled(context.Background(), "nope", true)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
