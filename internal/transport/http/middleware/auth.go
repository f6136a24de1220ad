package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"dailydiet/internal/app"
	"dailydiet/internal/transport/http/response"
)

const (
	ContextCallerKey    = "caller"
	ContextSessionIDKey = "session_id"
)

// CallerResolver turns request credentials into a caller identity.
type CallerResolver interface {
	ResolveToken(token string) (app.Caller, error)
	ResolveSession(ctx context.Context, sessionID string) (app.Caller, error)
}

// Auth accepts either an Authorization bearer token or the session cookie
// and stores the resolved caller on the request context. Both credentials
// produce the same identity shape; handlers never see which one was used.
func Auth(resolver CallerResolver, sessionCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if caller, ok := resolveBearer(c, resolver); ok {
			c.Set(ContextCallerKey, caller)
			c.Next()
			return
		}

		if sessionID, err := c.Cookie(sessionCookie); err == nil && sessionID != "" {
			caller, err := resolver.ResolveSession(c.Request.Context(), sessionID)
			if err == nil {
				c.Set(ContextCallerKey, caller)
				c.Set(ContextSessionIDKey, sessionID)
				c.Next()
				return
			}
		}

		response.Error(c, 401, response.CodeUnauthorized, "authentication required")
		c.Abort()
	}
}

func resolveBearer(c *gin.Context, resolver CallerResolver) (app.Caller, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return app.Caller{}, false
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return app.Caller{}, false
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
	caller, err := resolver.ResolveToken(token)
	if err != nil {
		return app.Caller{}, false
	}
	return caller, true
}

// CallerFromContext retrieves the identity stored by Auth.
func CallerFromContext(c *gin.Context) (app.Caller, bool) {
	value, exists := c.Get(ContextCallerKey)
	if !exists {
		return app.Caller{}, false
	}
	caller, ok := value.(app.Caller)
	return caller, ok
}

// SessionIDFromContext returns the session id when the caller authenticated
// with the cookie; empty for token-authenticated requests.
func SessionIDFromContext(c *gin.Context) string {
	value, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return ""
	}
	sessionID, _ := value.(string)
	return sessionID
}
