package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/logoforge/server/internal/pkg/jwt"
	"github.com/logoforge/server/internal/pkg/response"
	sessionpkg "github.com/logoforge/server/internal/pkg/session"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"
	ContextKeyEmail  = "user_email"
	tokenCookie      = "lf-token"
)

// TokenValidator resolves a raw bearer token into claims.
type TokenValidator func(rawToken string) (*jwt.Claims, error)

// SessionValidator checks JWTs against the user_sessions table.
func SessionValidator(db *gorm.DB) TokenValidator {
	return func(rawToken string) (*jwt.Claims, error) {
		return ValidateTokenClaims(db, rawToken)
	}
}

// Auth returns a middleware that enforces JWT authentication.
func Auth(validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := validate(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth sets the user ID if a valid token is present, but does not block the request.
func OptionalAuth(validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := extractToken(c); raw != "" {
			if claims, err := validate(raw); err == nil && claims.UserID != "" {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	if claims.Email != "" {
		c.Set(ContextKeyEmail, claims.Email)
	}
	if claims.SessionID != "" {
		c.Set(ContextKeySID, claims.SessionID)
	}
}

// ValidateTokenClaims validates a JWT and the session it is bound to.
func ValidateTokenClaims(db *gorm.DB, rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	sessionpkg.Touch(db, claims.UserID, claims.SessionID)
	return claims, nil
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// CurrentEmail extracts the authenticated user's email from context.
func CurrentEmail(c *gin.Context) string {
	v, _ := c.Get(ContextKeyEmail)
	email, _ := v.(string)
	return email
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		return NormalizeToken(auth)
	}
	if raw, err := c.Cookie(tokenCookie); err == nil {
		return NormalizeToken(raw)
	}
	return ""
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
