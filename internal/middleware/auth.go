package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/postboard/internal/auth"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/response"
)

const ContextUserIDKey = "user_id"

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (*auth.Identity, bool)
}

// Authenticate attaches the caller identity when a valid bearer token is
// present. It never rejects a request; handlers decide what needs a login.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		id, ok := verifier.Verify(token)
		if !ok {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Set(ContextUserIDKey, id.UserID)
		c.Next()
	}
}

// RequireAuth aborts requests that Authenticate left without an identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.FromContext(c.Request.Context()); !ok {
			response.Fail(c, appErr.Unauthorized("not authenticated"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
