// Package auth implements registration, the multi-factor login state
// machine, token refresh, and logout.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vaultdrop-backend/internal/domain"
	"vaultdrop-backend/internal/repository/postgres"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/jwt"
	"vaultdrop-backend/pkg/logger"
	"vaultdrop-backend/pkg/password"
	"vaultdrop-backend/pkg/sanitize"
)

// UserRepository interface
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	ConfirmTOTP(ctx context.Context, userID uuid.UUID) error
}

// TokenRepository interface for the refresh-token blacklist
type TokenRepository interface {
	BlacklistToken(ctx context.Context, jti string, expiresIn time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// LockoutManager interface for failed-attempt tracking
type LockoutManager interface {
	RecordFailure(ctx context.Context, identifier string) error
	IsLocked(ctx context.Context, identifier string) (bool, error)
	Clear(ctx context.Context, identifier string) error
}

// Service handles authentication business logic
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	lockout    LockoutManager
	jwtManager *jwt.Manager
	totpIssuer string
}

// NewService creates a new auth service
func NewService(userRepo UserRepository, tokenRepo TokenRepository, lockout LockoutManager, jwtManager *jwt.Manager, totpIssuer string) *Service {
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		lockout:    lockout,
		jwtManager: jwtManager,
		totpIssuer: totpIssuer,
	}
}

// RegisterInput contains user registration data
type RegisterInput struct {
	Email    string
	Password string
}

// Register creates a new user account. Role assignment happens inside the
// repository's creation transaction: first user ever becomes ADMIN.
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*domain.UserResponse, error) {
	email := sanitize.Email(input.Email)
	if email == "" {
		return nil, apperrors.ValidationError("email is required")
	}
	if err := password.Validate(input.Password); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if exists {
		return nil, apperrors.EmailExistsError()
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password")
	}

	user := &domain.User{
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Concurrent registration with the same email loses the race here
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, apperrors.EmailExistsError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("user registered",
		zap.String("user_id", user.UserID.String()),
		zap.String("role", user.Role))

	return user.ToResponse(), nil
}

// Login states. Every valid-credential login lands in exactly one of these.
const (
	StateMFASetupRequired = "mfa_setup_required"
	StateMFARequired      = "mfa_required"
	StateAuthenticated    = "authenticated"
)

// LoginInput is the tagged login request: credentials, optionally with a
// TOTP code
type LoginInput struct {
	Email    string
	Password string
	TOTPCode string // empty means CredentialsOnly
}

// LoginOutput contains the outcome of a login attempt. Exactly one token set
// is populated, matching the state.
type LoginOutput struct {
	State            string
	User             *domain.UserResponse
	ProvisionalToken string
	AccessToken      string
	RefreshToken     string
}

// Login runs the MFA state machine for one attempt
func (s *Service) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	email := sanitize.Email(input.Email)

	if input.TOTPCode != "" && !validTOTPFormat(input.TOTPCode) {
		return nil, apperrors.ValidationError("totp_code must be 6 digits")
	}

	locked, err := s.lockout.IsLocked(ctx, email)
	if err != nil {
		// Lockout is advisory; losing Redis must not block all logins
		logger.Warn("lockout check failed", zap.Error(err))
	} else if locked {
		return nil, apperrors.AccountLockedError()
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, apperrors.InvalidCredentialsError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.recordFailure(ctx, email)
		return nil, apperrors.InvalidCredentialsError()
	}

	// Credentials OK. A user without a confirmed secret must enroll before
	// receiving full tokens.
	if !user.MFAEnrolled() {
		provisional, err := s.jwtManager.GenerateProvisionalToken(user.UserID, user.Email)
		if err != nil {
			return nil, apperrors.InternalError("failed to generate provisional token")
		}
		return &LoginOutput{
			State:            StateMFASetupRequired,
			User:             user.ToResponse(),
			ProvisionalToken: provisional,
		}, nil
	}

	if input.TOTPCode == "" {
		provisional, err := s.jwtManager.GenerateProvisionalToken(user.UserID, user.Email)
		if err != nil {
			return nil, apperrors.InternalError("failed to generate provisional token")
		}
		return &LoginOutput{
			State:            StateMFARequired,
			User:             user.ToResponse(),
			ProvisionalToken: provisional,
		}, nil
	}

	if !s.verifyTOTP(*user.TOTPSecret, input.TOTPCode) {
		s.recordFailure(ctx, email)
		return nil, apperrors.InvalidTOTPCodeError()
	}

	if err := s.lockout.Clear(ctx, email); err != nil {
		logger.Warn("failed to clear lockout counter", zap.Error(err))
	}

	accessToken, refreshToken, err := s.issueTokenPair(user)
	if err != nil {
		return nil, err
	}

	logger.Info("user authenticated", zap.String("user_id", user.UserID.String()))

	return &LoginOutput{
		State:        StateAuthenticated,
		User:         user.ToResponse(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh issues a new access token for a valid, non-blacklisted refresh
// token. No credentials or MFA are required.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtManager.ValidateScopedToken(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		return "", apperrors.InvalidTokenError("invalid refresh token")
	}

	blacklisted, err := s.tokenRepo.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", apperrors.InternalError("failed to check token status")
	}
	if blacklisted {
		return "", apperrors.InvalidTokenError("refresh token has been invalidated")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", apperrors.UnauthorizedError("user no longer exists")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		return "", apperrors.InternalError("failed to generate access token")
	}

	return accessToken, nil
}

// Logout invalidates the refresh token so subsequent refresh attempts fail.
// The access token expires on its own schedule.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwtManager.ValidateScopedToken(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		// Already invalid; nothing to blacklist
		return nil
	}

	expiresIn := time.Until(claims.ExpiresAt.Time)
	if expiresIn <= 0 {
		return nil
	}

	if err := s.tokenRepo.BlacklistToken(ctx, claims.ID, expiresIn); err != nil {
		return apperrors.InternalError("failed to invalidate refresh token")
	}

	logger.Info("user logged out", zap.String("user_id", claims.UserID.String()))

	return nil
}

func (s *Service) issueTokenPair(user *domain.User) (access, refresh string, err error) {
	access, err = s.jwtManager.GenerateAccessToken(user.UserID, user.Email, user.Role)
	if err != nil {
		return "", "", apperrors.InternalError("failed to generate access token")
	}

	refresh, err = s.jwtManager.GenerateRefreshToken(user.UserID)
	if err != nil {
		return "", "", apperrors.InternalError("failed to generate refresh token")
	}

	return access, refresh, nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if err := s.lockout.RecordFailure(ctx, email); err != nil {
		logger.Warn("failed to record auth failure", zap.Error(err))
	}
}

func validTOTPFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
