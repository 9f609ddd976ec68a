// Package app wires the store, services and HTTP surface from a Config.
package app

import (
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/adapters/handler"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/adapters/notifier"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/permission"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/referrer"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/sanitize"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/services"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/threshold"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

type App struct {
	Config     *config.Config
	Repo       *sqlite.SQLiteRepository
	Tracker    *threshold.Tracker
	Dispatcher *threshold.Dispatcher
	Activity   *services.ActivityService
	Admin      *services.AdminService
	Handler    http.Handler
}

// New opens the store and builds every component. Close releases them.
func New(cfg *config.Config) (*App, error) {
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	filter, err := loadFilter(cfg.SensitivePatternsFile)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	tracker := threshold.NewTracker(cfg.PageSize, cfg.NotificationThreshold)
	dispatcher := threshold.NewDispatcher(tracker, repo, newNotifier(cfg), cfg.DispatchBuffer)
	counter := referrer.NewCounter()

	activity := services.NewActivityService(repo, filter, counter, dispatcher)
	admin := services.NewAdminService(repo, permission.NewMachine(repo), tracker, counter)

	logging.Info().
		Str("patterns_version", filter.Version()).
		Int("page_size", tracker.PageSize()).
		Int64("entry_threshold", tracker.TotalEntryThreshold()).
		Msg("activity log initialized")

	return &App{
		Config:     cfg,
		Repo:       repo,
		Tracker:    tracker,
		Dispatcher: dispatcher,
		Activity:   activity,
		Admin:      admin,
		Handler:    handler.NewRouter(cfg, activity, admin, repo),
	}, nil
}

// Close drains pending threshold checks and closes the store.
func (a *App) Close() error {
	a.Dispatcher.Close()
	return a.Repo.Close()
}

func loadFilter(path string) (*sanitize.Filter, error) {
	if path == "" {
		return sanitize.DefaultFilter(), nil
	}
	set, err := sanitize.LoadPatternSet(path)
	if err != nil {
		return nil, fmt.Errorf("load sensitive patterns: %w", err)
	}
	filter, err := sanitize.NewFilter(set)
	if err != nil {
		return nil, fmt.Errorf("compile sensitive patterns: %w", err)
	}
	return filter, nil
}

func newNotifier(cfg *config.Config) ports.ThresholdNotifier {
	if cfg.NotifyWebhookURL == "" {
		return notifier.NewLogNotifier()
	}
	return notifier.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken, cfg.NotifyWebhookHeader, cfg.FrontendURL)
}
