package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token scopes. Provisional tokens are issued after the password check but
// before MFA completes and are only accepted by the MFA setup/verify
// endpoints.
const (
	ScopeAccess      = "access"
	ScopeRefresh     = "refresh"
	ScopeProvisional = "mfa"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"` // ADMIN, USER, GUEST
	Scope  string    `json:"scope"`
	jwt.RegisteredClaims
}

// Manager handles JWT token operations
type Manager struct {
	secretKey           string
	accessTokenTTL      time.Duration
	refreshTokenTTL     time.Duration
	provisionalTokenTTL time.Duration
}

// NewManager creates a new JWT manager
func NewManager(secretKey string, accessTTL, refreshTTL, provisionalTTL time.Duration) *Manager {
	return &Manager{
		secretKey:           secretKey,
		accessTokenTTL:      accessTTL,
		refreshTokenTTL:     refreshTTL,
		provisionalTokenTTL: provisionalTTL,
	}
}

// GenerateAccessToken creates a new short-lived access token
func (m *Manager) GenerateAccessToken(userID uuid.UUID, email, role string) (string, error) {
	return m.generate(userID, email, role, ScopeAccess, m.accessTokenTTL)
}

// GenerateRefreshToken creates a new long-lived refresh token. The JTI claim
// is what the blacklist keys on at logout.
func (m *Manager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return m.generate(userID, "", "", ScopeRefresh, m.refreshTokenTTL)
}

// GenerateProvisionalToken creates a token scoped only to MFA endpoints
func (m *Manager) GenerateProvisionalToken(userID uuid.UUID, email string) (string, error) {
	return m.generate(userID, email, "", ScopeProvisional, m.provisionalTokenTTL)
}

func (m *Manager) generate(userID uuid.UUID, email, role, scope string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "vaultdrop-auth",
			Subject:   userID.String(),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates and parses a JWT token
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// ValidateScopedToken validates a token and requires it to carry the given scope
func (m *Manager) ValidateScopedToken(tokenString, scope string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("token scope %q not valid for this operation", claims.Scope)
	}
	return claims, nil
}
