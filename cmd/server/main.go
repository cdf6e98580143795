package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arcapos/internal/config"
	"arcapos/internal/infra"
	"arcapos/internal/repository"
	"arcapos/internal/router"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	deps := router.Deps{
		Backend: infra.NewBackendClient(cfg.BackendURL, cfg.BackendTimeout),
		ARCA:    infra.NewARCAClient(cfg.InvoicingURL, infra.DefaultARCACircuitBreaker()),
	}

	// Cart persistence: one record per terminal, restored on first use.
	switch cfg.CartStore {
	case "redis":
		deps.Redis = mustRedis(cfg.RedisURL)
		deps.CartRepo = repository.NewRedisCartRepository(deps.Redis)
	case "postgres":
		deps.DB = mustDatabase(cfg.DatabaseURL)
		deps.CartRepo = repository.NewGormCartRepository(deps.DB)
	case "memory":
		log.Warn().Msg("CART_STORE=memory: carts are lost on restart")
		deps.CartRepo = repository.NewMemoryCartRepository()
	default:
		log.Fatal().Str("cart_store", cfg.CartStore).Msg("unknown CART_STORE (redis | postgres | memory)")
	}

	// Last-known catalog lists live next to the carts when redis is available.
	if deps.Redis != nil {
		deps.CatalogCache = repository.NewRedisCatalogCache(deps.Redis, cfg.CatalogCacheTTL)
	} else {
		deps.CatalogCache = repository.NewMemoryCatalogCache()
	}

	r := router.New(cfg, deps)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// a checkout may wait INVOICE_TIMEOUT for the invoicing backend
		WriteTimeout: cfg.InvoiceTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("cart_store", cfg.CartStore).
			Bool("testing_mode", cfg.TestingMode).
			Str("invoicing_url", cfg.InvoicingURL).
			Msgf("arcapos session service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	closeStores(deps.Redis, deps.DB)
	log.Info().Msg("server exited")
}

// setupLogger: dev gets a pretty console writer, production plain JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func mustRedis(url string) *redis.Client {
	rdb, err := infra.NewRedis(url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	return rdb
}

func mustDatabase(dsn string) *gorm.DB {
	db, err := infra.NewDatabase(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	return db
}

func closeStores(rdb *redis.Client, db *gorm.DB) {
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
