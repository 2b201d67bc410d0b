package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/pkg/auth"
)

// Gin context keys set by RequireAuth
const (
	ContextAccountID = "account_id"
	ContextRole      = "role"
	ContextAuthUID   = "auth_uid"
)

// AuthMiddleware authenticates requests with provider tokens and resolves the application account
type AuthMiddleware struct {
	verifier *auth.Verifier
	accounts repository.UserAccountRepository
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(verifier *auth.Verifier, accounts repository.UserAccountRepository) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, accounts: accounts}
}

// RequireAuth checks the Bearer token. When allowQueryToken is set the token may
// also come from the "token" query parameter, which browsers need for WebSocket upgrades.
func (m *AuthMiddleware) RequireAuth(allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok && allowQueryToken {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_missing"})
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			errorType := "token_invalid"
			if errors.Is(err, auth.ErrTokenExpired) {
				errorType = "token_expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": errorType})
			return
		}

		account, err := m.accounts.GetByAuthUID(c.Request.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account setup is not complete", "error_type": "account_missing"})
				return
			}
			log.Error().Err(err).Str("component", "auth").Str("auth_uid", claims.Subject).Msg("account lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if account.Suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account suspended", "error_type": "account_suspended"})
			return
		}

		c.Set(ContextAccountID, account.ID)
		c.Set(ContextRole, account.Role)
		c.Set(ContextAuthUID, claims.Subject)
		c.Next()
	}
}

// RequireRole allows only accounts with one of the given roles; must run after RequireAuth
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		account := entity.UserAccount{Role: role}
		if !account.HasRole(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role", "error_type": "forbidden"})
			return
		}
		c.Next()
	}
}

// AccountID returns the authenticated account id
func AccountID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextAccountID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
