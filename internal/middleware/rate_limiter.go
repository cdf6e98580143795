package middleware

import (
	"net/http"
	"sync"
	"time"

	"arcapos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── General API rate limiter ──────────────────────────────────────────────────

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
	mu        sync.Mutex
}

type rateLimiter struct {
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*rateEntry
	lastPurge time.Time
	now       func() time.Time
}

const purgeInterval = 5 * time.Minute

// RateLimiter returns a per-IP limiter allowing limit requests per window.
// A non-positive limit disables it.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*rateEntry),
		now:     time.Now,
	}
	rl.lastPurge = rl.now()
	return rl.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	now := rl.now()
	entry := rl.entry(c.ClientIP(), now)

	entry.mu.Lock()
	if now.After(entry.windowEnd) {
		entry.count = 0
		entry.windowEnd = now.Add(rl.window)
	}
	entry.count++
	over := entry.count > rl.limit
	retryAt := entry.windowEnd
	entry.mu.Unlock()

	if over {
		c.Header("Retry-After", retryAt.UTC().Format(http.TimeFormat))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
		return
	}
	c.Next()
}

func (rl *rateLimiter) entry(ip string, now time.Time) *rateEntry {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastPurge) > purgeInterval {
		rl.purgeLocked(now)
	}
	e, ok := rl.entries[ip]
	if !ok {
		e = &rateEntry{}
		rl.entries[ip] = e
	}
	return e
}

// purgeLocked drops expired windows so IPs that never return do not accumulate.
func (rl *rateLimiter) purgeLocked(now time.Time) {
	purged := 0
	for ip, e := range rl.entries {
		e.mu.Lock()
		if now.After(e.windowEnd) {
			delete(rl.entries, ip)
			purged++
		}
		e.mu.Unlock()
	}
	rl.lastPurge = now
	if purged > 0 {
		log.Debug().
			Int("entries_purged", purged).
			Int("entries_remaining", len(rl.entries)).
			Msg("rate limiter: map purged")
	}
}
