package web

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter throttles login attempts per client address.
type loginLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// idleLimiter is how long an unused client limiter is kept.
const idleLimiter = 15 * time.Minute

func newLoginLimiter(perMinute float64, burst int) *loginLimiter {
	return &loginLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   burst,
		clients: make(map[string]*limiterEntry),
	}
}

// Allow reports whether the client of r may attempt a login now.
func (l *loginLimiter) Allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.clients {
		if now.Sub(e.lastSeen) > idleLimiter {
			delete(l.clients, k)
		}
	}
	e, ok := l.clients[host]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[host] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}
