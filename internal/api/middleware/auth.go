package middleware

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	stateKey = "session_state"
	tokenKey = "session_token"
)

// Authenticate resolves a bearer token to the shopper's state. Requests without a
// token, or with an expired one, continue anonymously.
func Authenticate(tokens session.TokenStore, registry *session.Registry, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}

		sess, err := tokens.Lookup(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrSessionNotFound) {
				logger.Warn("Token lookup failed: %v", err)
			}
			c.Next()
			return
		}

		c.Set(stateKey, registry.Open(sess))
		c.Set(tokenKey, token)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentState(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Next()
	}
}

func CurrentState(c *gin.Context) (*session.State, bool) {
	v, ok := c.Get(stateKey)
	if !ok {
		return nil, false
	}
	st, ok := v.(*session.State)
	return st, ok && st != nil
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
