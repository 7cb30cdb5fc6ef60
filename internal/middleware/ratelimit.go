package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gn-registry/internal/model"
)

const (
	clientIdleTTL  = 10 * time.Minute
	clientSweepLen = 1000
)

// buckets holds the two token buckets kept per client address. Login and
// refresh get a much tighter budget than the rest of the API.
type buckets struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimitMiddleware applies per-client-IP token buckets. An RPM of zero or
// less disables the corresponding bucket entirely.
type RateLimitMiddleware struct {
	generalRPM int
	authRPM    int

	mu      sync.Mutex
	clients map[string]*buckets
}

func NewRateLimitMiddleware(generalRPM int, authRPM int) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		generalRPM: generalRPM,
		authRPM:    authRPM,
		clients:    map[string]*buckets{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := m.bucketsFor(clientAddr(r))

		limiter := b.general
		if strings.HasPrefix(strings.ToLower(r.URL.Path), "/api/v1/auth") {
			limiter = b.auth
		}

		if limiter != nil && !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = jsonEncode(w, model.APIResponse{
				Success: false,
				Error:   &model.APIError{Code: "RATE_LIMITED", Message: "Too many requests"},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) bucketsFor(addr string) *buckets {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.clients[addr]; ok {
		b.lastSeen = time.Now()
		return b
	}

	b := &buckets{
		general:  newLimiter(m.generalRPM),
		auth:     newLimiter(m.authRPM),
		lastSeen: time.Now(),
	}
	m.clients[addr] = b

	if len(m.clients) >= clientSweepLen {
		m.sweepLocked()
	}
	return b
}

// newLimiter returns nil for a non-positive RPM, which Handler treats as
// no limit.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)
}

func (m *RateLimitMiddleware) sweepLocked() {
	cutoff := time.Now().Add(-clientIdleTTL)
	for addr, b := range m.clients {
		if b.lastSeen.Before(cutoff) {
			delete(m.clients, addr)
		}
	}
}

// clientAddr picks the client address for limiting: the first proxy-reported
// hop when present, the socket peer otherwise.
func clientAddr(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	if remote == "" {
		return "unknown"
	}
	return remote
}
