package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

type MockInvalidTokenRepo struct {
	mock.Mock
}

func (m *MockInvalidTokenRepo) AddInvalidToken(ctx context.Context, adminID uint, invalidationTime time.Time) error {
	args := m.Called(ctx, adminID, invalidationTime)
	return args.Error(0)
}

func (m *MockInvalidTokenRepo) IsTokenInvalid(ctx context.Context, adminID uint, tokenIssuedAt time.Time) (bool, error) {
	args := m.Called(ctx, adminID, tokenIssuedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvalidTokenRepo) CleanupOldInvalidTokens(ctx context.Context, cutoffTime time.Time) error {
	args := m.Called(ctx, cutoffTime)
	return args.Error(0)
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTService(t *testing.T, repo *MockInvalidTokenRepo) *JWTService {
	t.Helper()
	svc, err := NewJWTService(testSecret, 1, repo)
	require.NoError(t, err)
	return svc
}

func TestNewJWTService_Validation(t *testing.T) {
	_, err := NewJWTService("short", 1, &MockInvalidTokenRepo{})
	assert.Error(t, err)

	_, err = NewJWTService(testSecret, 1, nil)
	assert.Error(t, err)

	svc, err := NewJWTService(testSecret, 0, &MockInvalidTokenRepo{})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, svc.Expiration())
}

func TestGenerateAndParseToken(t *testing.T) {
	repo := new(MockInvalidTokenRepo)
	svc := newTestJWTService(t, repo)
	admin := &entity.Admin{ID: 3, Username: "root"}

	token, expiresAt, err := svc.GenerateToken(admin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	repo.On("IsTokenInvalid", mock.Anything, uint(3), mock.AnythingOfType("time.Time")).Return(false, nil).Once()

	claims, err := svc.ParseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.AdminID)
	assert.Equal(t, "root", claims.Username)
	assert.NotZero(t, claims.IssuedNano)
	repo.AssertExpectations(t)
}

func TestParseToken_Expired(t *testing.T) {
	svc := newTestJWTService(t, new(MockInvalidTokenRepo))
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := svc.GenerateToken(&entity.Admin{ID: 1, Username: "root"})
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	svc := newTestJWTService(t, new(MockInvalidTokenRepo))
	other, err := NewJWTService("another-secret-of-enough-length", 1, new(MockInvalidTokenRepo))
	require.NoError(t, err)

	token, _, err := other.GenerateToken(&entity.Admin{ID: 1, Username: "root"})
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseToken_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestJWTService(t, new(MockInvalidTokenRepo))
	claims := &AdminClaims{AdminID: 1, RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ParseToken(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestInvalidateTokensForAdmin(t *testing.T) {
	repo := new(MockInvalidTokenRepo)
	svc := newTestJWTService(t, repo)
	admin := &entity.Admin{ID: 9, Username: "root"}

	oldToken, _, err := svc.GenerateToken(admin)
	require.NoError(t, err)

	repo.On("AddInvalidToken", mock.Anything, uint(9), mock.AnythingOfType("time.Time")).Return(nil).Once()
	require.NoError(t, svc.InvalidateTokensForAdmin(context.Background(), 9))

	// Старый токен отклоняется по кешу в памяти, без обращения к БД
	_, err = svc.ParseToken(context.Background(), oldToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// Токен, выданный после выхода в ту же секунду, валиден
	newToken, _, err := svc.GenerateToken(admin)
	require.NoError(t, err)
	repo.On("IsTokenInvalid", mock.Anything, uint(9), mock.AnythingOfType("time.Time")).Return(false, nil).Once()

	claims, err := svc.ParseToken(context.Background(), newToken)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.AdminID)
	repo.AssertExpectations(t)
}

func TestParseToken_InvalidatedOnAnotherInstance(t *testing.T) {
	repo := new(MockInvalidTokenRepo)
	svc := newTestJWTService(t, repo)

	token, _, err := svc.GenerateToken(&entity.Admin{ID: 4, Username: "root"})
	require.NoError(t, err)

	repo.On("IsTokenInvalid", mock.Anything, uint(4), mock.AnythingOfType("time.Time")).Return(true, nil).Once()

	_, err = svc.ParseToken(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	repo.AssertExpectations(t)
}

func TestIssuedTimeFallback(t *testing.T) {
	at := time.Unix(1700000000, 0)
	claims := &AdminClaims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(at)}}
	assert.True(t, claims.IssuedTime().Equal(at))
	assert.True(t, (&AdminClaims{}).IssuedTime().IsZero())
}
