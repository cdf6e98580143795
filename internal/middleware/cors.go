package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS lets the browser UI send the terminal and idempotency headers and read
// the request id and catalog staleness flags back.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID, "+TerminalHeader)
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Catalog-Stale")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
