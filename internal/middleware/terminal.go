package middleware

import (
	"net/http"

	"arcapos/internal/apierror"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	TerminalKey    = "terminal"
	TerminalHeader = "X-Terminal-ID"
)

// Terminal resolves the till a request belongs to from X-Terminal-ID.
// A missing header selects the default terminal.
func Terminal() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TerminalHeader)
		if id == "" {
			id = service.DefaultTerminal
		}
		if !service.ValidTerminalID(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("X-Terminal-ID invalido"))
			return
		}
		c.Set(TerminalKey, id)
		c.Next()
	}
}

// GetTerminal returns the terminal resolved by Terminal.
func GetTerminal(c *gin.Context) string {
	if id := c.GetString(TerminalKey); id != "" {
		return id
	}
	return service.DefaultTerminal
}
