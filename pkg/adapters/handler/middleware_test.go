package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg)

	tests := []struct {
		name           string
		path           string
		cookieName     string
		cookieValue    string
		expectedStatus int
	}{
		{
			name:           "No Cookie - API",
			path:           "/api/v1/admin/logs",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "No Cookie - Browser",
			path:           "/admin",
			expectedStatus: http.StatusTemporaryRedirect,
		},
		{
			name:           "Invalid Cookie - API",
			path:           "/api/v1/admin/logs",
			cookieName:     "auth_token",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret - API",
			path:           "/api/v1/admin/logs",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, "other-secret", "test@example.com"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie - API",
			path:           "/api/v1/admin/logs",
			cookieName:     "auth_token",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, "test@example.com"),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookieName != "" {
				req.AddCookie(&http.Cookie{Name: tt.cookieName, Value: tt.cookieValue})
			}

			rr := httptest.NewRecorder()
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test@example.com", UserEmail(r.Context()))
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}

func TestOwnerOnly(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s", OwnerEmails: []string{"owner@example.com"}}
	mw := NewMiddleware(cfg)
	handler := mw.AuthMiddleware(mw.OwnerOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for email, want := range map[string]int{
		"owner@example.com":   http.StatusOK,
		"visitor@example.com": http.StatusForbidden,
	} {
		req := httptest.NewRequest("GET", "/api/v1/admin/logs", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: generateTestToken(t, "s", email)})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, email)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remote     string
		trustProxy bool
		want       string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "10.0.0.1"}, "127.0.0.1:1", true, "203.0.113.9"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, "127.0.0.1:1", true, "198.51.100.2"},
		{"real ip", map[string]string{"X-Real-IP": "2001:DB8::1"}, "127.0.0.1:1", true, "2001:db8::1"},
		{"headers ignored without proxy", map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "198.51.100.2"}, "192.0.2.7:1", false, "192.0.2.7"},
		{"remote addr", nil, "[::ffff:192.0.2.1]:4000", false, "192.0.2.1"},
		{"garbage", nil, "not-an-ip", true, "0.0.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			mw := NewMiddleware(&config.Config{TrustProxyHeaders: tt.trustProxy})
			assert.Equal(t, tt.want, mw.ClientIP(req))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, nil)
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"), "limits are per IP")

	unlimited := NewRateLimiter(0, nil)
	for i := 0; i < 100; i++ {
		assert.True(t, unlimited.Allow("1.1.1.1"))
	}
}

func TestRateLimiterIgnoresForgedForwardedFor(t *testing.T) {
	mw := NewMiddleware(&config.Config{})
	rl := NewRateLimiter(2, mw.ClientIP)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/activity/access", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func generateTestToken(t *testing.T, secret, subject string) string {
	expirationTime := time.Now().Add(5 * time.Minute)
	claims := &jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expirationTime),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
