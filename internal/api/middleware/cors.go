package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsHeaders = strings.Join([]string{"Content-Type", "Authorization", "X-API-Key", RequestIDHeader}, ", ")
	// export downloads need the filename, clients correlate logs by request id
	corsExposed = strings.Join([]string{"Content-Disposition", RequestIDHeader}, ", ")
)

// CORS allows the browser client from the configured origins. "*" allows any
// origin; preflights from other origins are rejected.
func CORS(allowOrigins []string) gin.HandlerFunc {
	wildcard := slices.Contains(allowOrigins, "*")

	return func(c *gin.Context) {
		// Check the origin against the allow list
		origin := c.GetHeader("Origin")
		allowed := wildcard || (origin != "" && slices.Contains(allowOrigins, origin))

		if allowed {
			// Requests without an Origin header get the wildcard
			allowOrigin := origin
			if allowOrigin == "" {
				allowOrigin = "*"
			}
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", corsMethods)
			c.Header("Access-Control-Allow-Headers", corsHeaders)
			c.Header("Access-Control-Expose-Headers", corsExposed)
			c.Header("Access-Control-Max-Age", "86400")
		}

		// Answer preflight requests directly
		if c.Request.Method == http.MethodOptions {
			if !allowed && origin != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
