package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/domain"
)

// Auth returns an API key authentication middleware. An empty key disables it.
func Auth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// No key configured, the API is open
		if apiKey == "" {
			c.Next()
			return
		}

		// Read the key from X-API-Key, falling back to a bearer token
		key := c.GetHeader("X-API-Key")
		if key == "" {
			auth := c.GetHeader("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		// Compare in constant time
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": domain.ErrUnauthorized.Error()})
			return
		}

		c.Next()
	}
}
