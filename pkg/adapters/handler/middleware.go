package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/metrics"
)

type contextKey string

const userEmailKey contextKey = "user_email"

// UserEmail returns the authenticated email stored by AuthMiddleware.
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}

type Middleware struct {
	jwtSecret  []byte
	isOwner    func(email string) bool
	trustProxy bool
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		jwtSecret:  []byte(cfg.JWTSecret),
		isOwner:    cfg.IsOwner,
		trustProxy: cfg.TrustProxyHeaders,
	}
}

// ClientIP resolves the caller's address, honouring proxy headers only when configured to.
func (m *Middleware) ClientIP(r *http.Request) string {
	return clientIP(r, m.trustProxy)
}

// emailFromRequest validates the auth_token cookie and returns its subject.
func (m *Middleware) emailFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

// AuthMiddleware verifies the JWT token from the cookie
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := m.emailFromRequest(r)
		if !ok {
			if isAPIRequest(r) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			} else {
				http.Redirect(w, r, "/auth/google/login", http.StatusTemporaryRedirect)
			}
			return
		}

		ctx := context.WithValue(r.Context(), userEmailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerOnly rejects authenticated users that are not in the owner allowlist.
// It must run after AuthMiddleware.
func (m *Middleware) OwnerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := UserEmail(r.Context())
		if !m.isOwner(email) {
			logging.Warn().Str("email", email).Str("path", r.URL.Path).Msg("non-owner access to admin endpoint")
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "owner access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// clientIP returns the socket address, or with trustProxy the first proxy header that is set.
// Proxy headers are client controlled unless a proxy in front rewrites them.
func clientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return identity.NormalizeIP(r.RemoteAddr)
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return identity.NormalizeIP(ip)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := identity.NormalizeIP(first); ip != identity.DefaultIPAddress {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return identity.NormalizeIP(ip)
	}
	return identity.NormalizeIP(r.RemoteAddr)
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rateLimiterEntry
	rate      rate.Limit
	burst     int
	lastSweep time.Time
	clientIP  func(r *http.Request) string
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows perMinute requests per IP as resolved by clientIP.
// A non-positive value disables limiting.
func NewRateLimiter(perMinute int, clientIP func(r *http.Request) string) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{rate: rate.Inf, clientIP: clientIP}
	}
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Limit(float64(perMinute) / 60),
		burst:     perMinute,
		lastSweep: time.Now(),
		clientIP:  clientIP,
	}
}

func (rl *RateLimiter) Allow(ip string) bool {
	if rl.rate == rate.Inf {
		return true
	}

	now := time.Now()
	rl.mu.Lock()
	if now.Sub(rl.lastSweep) > 10*time.Minute {
		rl.sweep(now.Add(-time.Hour))
		rl.lastSweep = now
	}
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// sweep drops limiters idle since before cutoff. Caller holds mu.
func (rl *RateLimiter) sweep(cutoff time.Time) {
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientIP(r)) {
			metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs every request with a request ID.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
