package middleware

import (
	"net/http"
	"strings"
	"time"

	"arcapos/internal/apierror"
	"arcapos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey = "claims"
)

// BearerToken forwards the UI's access token to the product and invoicing
// backends. The token is issued and verified by those backends; here it is
// only decoded so an expired session is answered with 401 before any backend
// call is made. Requests without an Authorization header pass through.
func BearerToken() gin.HandlerFunc {
	return bearerToken(time.Now)
}

func bearerToken(now func() time.Time) gin.HandlerFunc {
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &jwt.RegisteredClaims{}
		if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido"))
			return
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now()) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Sesion expirada, inicie sesion nuevamente"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(infra.WithBearerToken(c.Request.Context(), tokenStr))
		c.Next()
	}
}

// GetClaims returns the decoded token claims, or nil for anonymous requests.
func GetClaims(c *gin.Context) *jwt.RegisteredClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.RegisteredClaims)
	return claims
}
