package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salon/internal/apperr"
)

// ClaimsKey is where Required stores the caller's claims.
const ClaimsKey = "claims"

// Required enforces bearer access tokens signed with HS256.
func Required(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, AccessToken, signingKey, issuer)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// Caller returns the claims set by Required.
func Caller(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"kind": apperr.KindUnauthenticated, "message": msg}})
}
