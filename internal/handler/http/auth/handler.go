// Package auth exposes the authentication endpoints.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vaultdrop-backend/internal/middleware"
	"vaultdrop-backend/internal/service/auth"
	apperrors "vaultdrop-backend/pkg/errors"
	"vaultdrop-backend/pkg/jwt"
	"vaultdrop-backend/pkg/metrics"
	"vaultdrop-backend/pkg/response"
)

// CookieConfig controls the flags on auth cookies
type CookieConfig struct {
	Domain         string
	Secure         bool
	SameSite       http.SameSite
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	ProvisionalTTL time.Duration
}

// Handler handles HTTP requests for authentication
type Handler struct {
	authService *auth.Service
	jwtManager  *jwt.Manager
	metrics     *metrics.Metrics
	cookies     CookieConfig
}

// NewHandler creates a new auth handler
func NewHandler(authService *auth.Service, jwtManager *jwt.Manager, m *metrics.Metrics, cookies CookieConfig) *Handler {
	return &Handler{
		authService: authService,
		jwtManager:  jwtManager,
		metrics:     m,
		cookies:     cookies,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents login request body. The TOTP code is optional: a
// credentials-only request is how a client discovers which MFA step is next.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"omitempty,len=6,numeric"`
}

// VerifyMFARequest represents MFA enrollment confirmation
type VerifyMFARequest struct {
	TOTPCode string `json:"totp_code" binding:"required,len=6,numeric"`
}

// RefreshRequest represents a token refresh via request body. Cookie-based
// clients may send an empty body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles user registration
// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// Login runs one step of the MFA login state machine
// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	out, err := h.authService.Login(c.Request.Context(), &auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		TOTPCode: req.TOTPCode,
	})
	if err != nil {
		if apperrors.IsCode(err, apperrors.ErrCodeLocked) {
			h.metrics.RecordLockout()
		} else {
			h.metrics.RecordLogin("failed")
		}
		response.AppError(c, err)
		return
	}

	switch out.State {
	case auth.StateAuthenticated:
		h.metrics.RecordLogin("success")
		h.setCookie(c, middleware.AccessTokenCookie, out.AccessToken, h.cookies.AccessTTL)
		h.setCookie(c, middleware.RefreshTokenCookie, out.RefreshToken, h.cookies.RefreshTTL)
		h.clearCookie(c, middleware.ProvisionalTokenCookie)
		response.Success(c, http.StatusOK, gin.H{
			"status":        out.State,
			"user":          out.User,
			"access_token":  out.AccessToken,
			"refresh_token": out.RefreshToken,
		})
	default:
		h.metrics.RecordLogin("mfa_pending")
		h.setCookie(c, middleware.ProvisionalTokenCookie, out.ProvisionalToken, h.cookies.ProvisionalTTL)
		response.Success(c, http.StatusOK, gin.H{
			"status":     out.State,
			"temp_token": out.ProvisionalToken,
		})
	}
}

// SetupMFA returns enrollment material for an authenticator app
// GET /api/auth/mfa/setup (provisional token)
func (h *Handler) SetupMFA(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	setup, err := h.authService.SetupMFA(c.Request.Context(), principal.UserID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"secret":           setup.Secret,
		"provisioning_uri": setup.ProvisioningURI,
		"qr_code":          setup.QRCodePNG,
	})
}

// VerifyMFA confirms enrollment with a first code. The client then logs in
// again, this time with credentials plus code.
// POST /api/auth/mfa/setup (provisional token)
func (h *Handler) VerifyMFA(c *gin.Context) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}

	var req VerifyMFARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if err := h.authService.VerifyMFA(c.Request.Context(), principal.UserID, req.TOTPCode); err != nil {
		response.AppError(c, err)
		return
	}

	h.metrics.RecordMFAEnrollment()
	// Enrollment is complete; the provisional credential has served its purpose
	h.clearCookie(c, middleware.ProvisionalTokenCookie)
	response.Success(c, http.StatusOK, gin.H{"message": "Two-factor authentication enabled"})
}

// Logout blacklists the refresh token and clears auth cookies. Requires a
// full access token; the refresh token comes from the body or cookie.
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken != "" {
		if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
			response.AppError(c, err)
			return
		}
	}

	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, middleware.RefreshTokenCookie)
	h.clearCookie(c, middleware.ProvisionalTokenCookie)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Refresh issues a new access token
// POST /api/auth/token/refresh
func (h *Handler) Refresh(c *gin.Context) {
	refreshToken := h.refreshTokenFrom(c)
	if refreshToken == "" {
		response.Unauthorized(c, "Refresh token required")
		return
	}

	accessToken, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		response.AppError(c, err)
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, accessToken, h.cookies.AccessTTL)
	response.Success(c, http.StatusOK, gin.H{"access_token": accessToken})
}

// CheckAuth reports session state without ever failing the request
// GET /api/auth/check-auth
func (h *Handler) CheckAuth(c *gin.Context) {
	tokenString := bearerOrCookie(c, middleware.AccessTokenCookie)
	if tokenString == "" {
		response.Success(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}

	claims, err := h.jwtManager.ValidateScopedToken(tokenString, jwt.ScopeAccess)
	if err != nil {
		response.Success(c, http.StatusOK, gin.H{"authenticated": false})
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"authenticated": true,
		"user": gin.H{
			"user_id": claims.UserID,
			"email":   claims.Email,
			"role":    claims.Role,
		},
	})
}

func (h *Handler) refreshTokenFrom(c *gin.Context) string {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (h *Handler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, value, int(ttl.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *Handler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(h.cookies.SameSite)
	c.SetCookie(name, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func bearerOrCookie(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}
