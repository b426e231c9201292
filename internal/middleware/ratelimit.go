package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/pkordes/trip-planner/internal/metrics"
)

// Limiter cache sizing. An idle client's bucket is refilled long before its
// entry expires, so eviction never grants extra requests.
const (
	limiterCacheSize = 10_000
	limiterTTL       = 10 * time.Minute
)

// NewRateLimiter returns a middleware that allows each client address rps
// requests per second with bursts of up to burst. Excess requests get 429
// with a Retry-After header. rps <= 0 disables limiting.
//
// Wire it after chimiddleware.RealIP so RemoteAddr is the client address.
func NewRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst = max(burst, 1)
	cache := expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterTTL)

	limiterFor := func(addr string) *rate.Limiter {
		if l, ok := cache.Get(addr); ok {
			return l
		}
		l := rate.NewLimiter(rate.Limit(rps), burst)
		cache.Add(addr, l)
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := limiterFor(clientAddr(r))

			res := l.Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, l.Tokens()))))
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
