package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redmonkez12/go-user-api/internal/httputil"
	"github.com/redmonkez12/go-user-api/internal/logging"
)

// Limiter enforces a fixed-window request budget per client IP and purpose.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow records one request from ip for purpose. When the budget of the
// current window is spent it returns false and the time until the window ends.
func (l *Limiter) Allow(ctx context.Context, purpose, ip string) (bool, time.Duration, error) {
	now := l.now()
	bucket := now.UnixNano() / int64(l.window)
	key := fmt.Sprintf("ratelimit:%s:%s:%d", purpose, ip, bucket)

	count, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		return true, 0, err
	}

	if count <= l.limit {
		return true, 0, nil
	}

	windowEnd := time.Unix(0, (bucket+1)*int64(l.window))
	return false, windowEnd.Sub(now), nil
}

// Middleware rejects requests over budget with 429. If the store is
// unreachable the request goes through and the failure is logged.
func Middleware(l *Limiter, purpose string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.GetLoggerFromContext(r.Context())
			ip := clientIP(r)

			allowed, retryAfter, err := l.Allow(r.Context(), purpose, ip)
			if err != nil {
				logger.Error("failed to check rate limit", "purpose", purpose, "error", err.Error())
			} else if !allowed {
				logger.Warn("rate limit exceeded", "purpose", purpose, "ip", ip)
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr; proxy headers are already
// folded in by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
