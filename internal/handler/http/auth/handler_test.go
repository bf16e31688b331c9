package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/middleware"
	authsvc "vaultdrop-backend/internal/service/auth"
	"vaultdrop-backend/pkg/jwt"
	"vaultdrop-backend/pkg/metrics"
)

// Registered once; promauto panics on duplicate metric names.
var testMetrics = metrics.New("test")

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	args := m.Called(ctx, userID, secret)
	return args.Error(0)
}

func (m *MockUserRepository) ConfirmTOTP(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) BlacklistToken(ctx context.Context, jti string, expiresIn time.Duration) error {
	args := m.Called(ctx, jti, expiresIn)
	return args.Error(0)
}

func (m *MockTokenRepository) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type MockLockoutManager struct {
	mock.Mock
}

func (m *MockLockoutManager) RecordFailure(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

func (m *MockLockoutManager) IsLocked(ctx context.Context, identifier string) (bool, error) {
	args := m.Called(ctx, identifier)
	return args.Bool(0), args.Error(1)
}

func (m *MockLockoutManager) Clear(ctx context.Context, identifier string) error {
	args := m.Called(ctx, identifier)
	return args.Error(0)
}

type handlerEnv struct {
	userRepo   *MockUserRepository
	tokenRepo  *MockTokenRepository
	jwtManager *jwt.Manager
	router     *gin.Engine
}

func newHandlerEnv() *handlerEnv {
	gin.SetMode(gin.TestMode)

	env := &handlerEnv{
		userRepo:   new(MockUserRepository),
		tokenRepo:  new(MockTokenRepository),
		jwtManager: jwt.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour, 10*time.Minute),
	}

	svc := authsvc.NewService(env.userRepo, env.tokenRepo, new(MockLockoutManager), env.jwtManager, "VaultDrop")
	h := NewHandler(svc, env.jwtManager, testMetrics, CookieConfig{
		SameSite:       http.SameSiteLaxMode,
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		ProvisionalTTL: 10 * time.Minute,
	})

	env.router = gin.New()
	env.router.POST("/api/auth/logout", middleware.RequireAuth(env.jwtManager), h.Logout)
	env.router.POST("/api/auth/mfa/setup", middleware.RequireProvisional(env.jwtManager), h.VerifyMFA)
	return env
}

func TestLogout_RequiresAuthentication(t *testing.T) {
	env := newHandlerEnv()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env.tokenRepo.AssertNotCalled(t, "BlacklistToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout_RejectsProvisionalToken(t *testing.T) {
	env := newHandlerEnv()

	provisional, err := env.jwtManager.GenerateProvisionalToken(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+provisional)
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_AuthenticatedBlacklistsRefreshToken(t *testing.T) {
	env := newHandlerEnv()
	userID := uuid.New()

	accessToken, err := env.jwtManager.GenerateAccessToken(userID, "alice@example.com", domain.RoleUser)
	require.NoError(t, err)
	refreshToken, err := env.jwtManager.GenerateRefreshToken(userID)
	require.NoError(t, err)

	env.tokenRepo.On("BlacklistToken", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Duration")).Return(nil)

	body, _ := json.Marshal(gin.H{"refresh_token": refreshToken})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env.tokenRepo.AssertExpectations(t)
}

func TestVerifyMFA_ClearsProvisionalCookie(t *testing.T) {
	env := newHandlerEnv()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "VaultDrop", AccountName: "bob@example.com"})
	require.NoError(t, err)
	secret := key.Secret()

	user := &domain.User{
		UserID:     uuid.New(),
		Email:      "bob@example.com",
		Role:       domain.RoleUser,
		TOTPSecret: &secret,
	}
	env.userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)
	env.userRepo.On("ConfirmTOTP", mock.Anything, user.UserID).Return(nil)

	provisional, err := env.jwtManager.GenerateProvisionalToken(user.UserID, user.Email)
	require.NoError(t, err)
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	body, _ := json.Marshal(gin.H{"totp_code": code})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/mfa/setup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.ProvisionalTokenCookie, Value: provisional})
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.ProvisionalTokenCookie && c.Value == "" && c.MaxAge <= 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected a Set-Cookie clearing %s, got %v",
		middleware.ProvisionalTokenCookie, rec.Header().Values("Set-Cookie"))
}

func TestVerifyMFA_WrongCodeKeepsProvisionalCookie(t *testing.T) {
	env := newHandlerEnv()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: "VaultDrop", AccountName: "bob@example.com"})
	require.NoError(t, err)
	secret := key.Secret()

	user := &domain.User{
		UserID:     uuid.New(),
		Email:      "bob@example.com",
		Role:       domain.RoleUser,
		TOTPSecret: &secret,
	}
	env.userRepo.On("GetByID", mock.Anything, user.UserID).Return(user, nil)

	provisional, err := env.jwtManager.GenerateProvisionalToken(user.UserID, user.Email)
	require.NoError(t, err)

	body, _ := json.Marshal(gin.H{"totp_code": "000000"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/mfa/setup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: middleware.ProvisionalTokenCookie, Value: provisional})
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.ProvisionalTokenCookie {
			t.Errorf("provisional cookie must survive a failed verification, got Set-Cookie %q",
				strings.Join(rec.Header().Values("Set-Cookie"), "; "))
		}
	}
}
