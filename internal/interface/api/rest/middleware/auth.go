package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filedrive/internal/application/ports"
	"filedrive/internal/domain/user"
)

const (
	CtxUser      = "user"
	CtxSessionID = "sessionID"
)

// AuthMiddleware requires a bearer token whose session is still active.
func AuthMiddleware(auth ports.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "missing Authorization header"},
			)
			return
		}

		if !authenticate(c, auth, authHeader) {
			return
		}

		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and lets
// anonymous requests through. A present but invalid token is still refused.
func OptionalAuth(auth ports.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, auth, authHeader) {
			return
		}

		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok || !u.IsAdmin {
			c.AbortWithStatusJSON(
				http.StatusForbidden,
				gin.H{"error": "admin rights required"},
			)
			return
		}

		c.Next()
	}
}

func authenticate(c *gin.Context, auth ports.Auth, authHeader string) bool {
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenStr == authHeader {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			gin.H{"error": "invalid token format"},
		)
		return false
	}

	u, sid, err := auth.Authenticate(c.Request.Context(), tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(
			http.StatusUnauthorized,
			gin.H{"error": "invalid token"},
		)
		return false
	}

	c.Set(CtxUser, u)
	c.Set(CtxSessionID, sid)

	return true
}

func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

// UserName is empty for anonymous callers.
func UserName(c *gin.Context) string {
	u, _ := CurrentUser(c)
	return u.Name
}

func SessionID(c *gin.Context) string {
	return c.GetString(CtxSessionID)
}
