package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// Pinger reports whether the log store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, activity ports.ActivityLogger, admin ports.AdminService, store Pinger) http.Handler {
	mw := NewMiddleware(cfg)
	h := NewHTTPHandler(activity, mw, cfg.IsProduction())
	ah := NewAdminHandler(admin, mw)
	authHandler := NewAuthHandler(cfg)
	limiter := NewRateLimiter(cfg.RateLimitPerMinute, mw.ClientIP)

	mux := http.NewServeMux()

	// Infra
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "store unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Public activity logging
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("POST /api/v1/activity/access", h.Access)
	publicMux.HandleFunc("POST /api/v1/activity/input", h.Input)
	publicMux.HandleFunc("POST /api/v1/activity/copy/text", h.TextCopy)
	publicMux.HandleFunc("POST /api/v1/activity/copy/url", h.URLCopy)
	publicMux.HandleFunc("POST /api/v1/activity/copy/template", h.TemplateCopy)
	publicMux.HandleFunc("POST /api/v1/activity/copy/content", h.ContentCopy)
	publicMux.HandleFunc("POST /api/v1/activity/referrer", h.Referrer)
	publicMux.HandleFunc("POST /api/v1/activity/ai", h.AIInteraction)
	mux.Handle("/api/v1/activity/", limiter.Middleware(publicMux))

	// Owner routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/v1/admin/logs", ah.ListLogs)
	adminMux.HandleFunc("GET /api/v1/admin/logs/count", ah.CountLogs)
	adminMux.HandleFunc("POST /api/v1/admin/logs/export", ah.Export)
	adminMux.HandleFunc("POST /api/v1/admin/logs/acknowledge", ah.Acknowledge)
	adminMux.HandleFunc("DELETE /api/v1/admin/logs", ah.DeleteLogs)
	adminMux.HandleFunc("GET /api/v1/admin/permission", ah.Permission)
	adminMux.HandleFunc("GET /api/v1/admin/threshold", ah.Threshold)
	adminMux.HandleFunc("GET /api/v1/admin/sources", ah.Sources)
	adminMux.HandleFunc("POST /api/v1/admin/sources/reset", ah.ResetSources)
	mux.Handle("/api/v1/admin/", mw.AuthMiddleware(mw.OwnerOnly(adminMux)))

	return AccessLog(mux)
}
