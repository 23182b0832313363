package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter allows maxRequests per window for each client address. Entries
// unseen for three windows are dropped on the next request.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	expiry   time.Duration
	lastGC   time.Time
	now      func() time.Time
}

func newRateLimiter(maxRequests int, window time.Duration) *rateLimiter {
	expiry := 3 * window
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		expiry:   expiry,
		now:      time.Now,
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastGC) > l.expiry {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiry {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// middleware keys on the client host; chi's RealIP runs first so proxied
// requests are keyed by the forwarded address.
func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.allow(host) {
			writeError(w, r, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
