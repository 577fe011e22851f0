package middleware

import (
	"net/http"
	"sync"
	"time"

	"ferreteria/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// limiter is a fixed-window per-IP counter: the count resets when the
// window rolls over, so a burst straddling the boundary can briefly see
// up to 2× the limit. Acceptable for abuse protection, not for quotas.
type limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   int
	window  time.Duration
}

type limiterEntry struct {
	count     int
	windowEnd time.Time
}

func newLimiter(limit int, window time.Duration) *limiter {
	l := &limiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		window:  window,
	}
	go l.purge()
	return l
}

func (l *limiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &limiterEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

// purge removes expired entries so IPs that never return do not accumulate.
func (l *limiter) purge() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		purged := 0
		for ip, entry := range l.entries {
			if now.After(entry.windowEnd) {
				delete(l.entries, ip)
				purged++
			}
		}
		remaining := len(l.entries)
		l.mu.Unlock()
		if purged > 0 {
			log.Debug().
				Int("purged", purged).
				Int("remaining", remaining).
				Msg("rate limiter entries purged")
		}
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	l := newLimiter(20, time.Minute)
	return func(c *gin.Context) {
		if ok, _ := l.allow(c.ClientIP()); !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Demasiados intentos de login. Intente en 1 minuto."))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general-purpose per-IP limiter for the public API.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	l := newLimiter(limit, window)
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", windowEnd.Format(time.RFC1123))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
