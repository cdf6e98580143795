package handler

import (
	"context"
	"net/http"
	"time"

	"arcapos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Pinger is anything health can probe (the product backend client).
type Pinger interface {
	Ping(ctx context.Context) error
}

// CircuitReporter exposes the invoicing circuit breaker state.
type CircuitReporter interface {
	CircuitState() infra.CBState
}

// HealthDeps lists what /health probes. Nil members are reported as
// "disabled" (e.g. no postgres when CART_STORE=redis).
type HealthDeps struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Backend   Pinger
	Invoicing CircuitReporter
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The product backend and the invoicing circuit are informative: the session
// service still serves carts while they are down.
func Health(deps HealthDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			sqlDB, err := deps.DB.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				dbStatus = "error"
			}
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		backendStatus := "disabled"
		if deps.Backend != nil {
			backendStatus = "connected"
			if deps.Backend.Ping(ctx) != nil {
				backendStatus = "error"
			}
		}

		circuit := "unknown"
		if deps.Invoicing != nil {
			circuit = deps.Invoicing.CircuitState().String()
		}

		status := http.StatusOK
		if dbStatus == "error" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"redis":     redisStatus,
			"backend":   backendStatus,
			"invoicing": circuit,
		})
	}
}
