package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vaultdrop-backend/internal/access"
	"vaultdrop-backend/pkg/jwt"
	"vaultdrop-backend/pkg/response"
)

// Context keys set by the auth middlewares
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// Cookie names used as fallback when no Authorization header is present
const (
	AccessTokenCookie      = "access_token"
	RefreshTokenCookie     = "refresh_token"
	ProvisionalTokenCookie = "temp_token"
)

// RequireAuth validates a full access token and sets the user identity in
// the Gin context. The token comes from the Authorization header or, for
// browser clients, the access_token cookie.
func RequireAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return requireScope(jwtManager, jwt.ScopeAccess, AccessTokenCookie)
}

// RequireProvisional accepts only the short-lived token issued between the
// password check and MFA completion. It guards the MFA setup and verify
// endpoints and nothing else.
func RequireProvisional(jwtManager *jwt.Manager) gin.HandlerFunc {
	return requireScope(jwtManager, jwt.ScopeProvisional, ProvisionalTokenCookie)
}

func requireScope(jwtManager *jwt.Manager, scope, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c, cookieName)
		if tokenString == "" {
			response.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateScopedToken(tokenString, scope)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. Must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "Insufficient privileges")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Principal extracts the authenticated principal from the Gin context.
// Returns false when no auth middleware ran on this request.
func Principal(c *gin.Context) (access.Principal, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return access.Principal{}, false
	}
	userID, ok := v.(uuid.UUID)
	if !ok {
		return access.Principal{}, false
	}
	return access.Principal{
		UserID: userID,
		Role:   c.GetString(ContextUserRole),
	}, true
}

func extractToken(c *gin.Context, cookieName string) string {
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
