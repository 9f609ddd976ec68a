package ports

import (
	"context"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
)

// ActivityRepository is the append-only activity log store
type ActivityRepository interface {
	Write(ctx context.Context, entry *domain.ActivityLogEntry) error
	// WriteReferrer stores the entry and its referrer row atomically
	WriteReferrer(ctx context.Context, entry *domain.ActivityLogEntry, ref *domain.ReferrerLog) error
	Query(ctx context.Context, filter domain.LogFilter) ([]domain.ActivityLogEntry, error)
	Count(ctx context.Context, filter domain.LogFilter) (int64, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// PermissionStore persists the owner permission state
type PermissionStore interface {
	Load(ctx context.Context, ownerID string) (domain.PermissionState, error)
	// CompareAndSwap moves ownerID from -> to and reports false if the state was not from
	CompareAndSwap(ctx context.Context, ownerID string, from, to domain.PermissionState) (bool, error)
}

// ThresholdNotifier delivers the "log volume reached" notification
type ThresholdNotifier interface {
	NotifyThreshold(ctx context.Context, status domain.ThresholdStatus) error
}

// ActivityLogger defines the visitor event logging operations
type ActivityLogger interface {
	LogVisitorAccess(ctx context.Context, v identity.VisitorInfo, page string) (*domain.ActivityLogEntry, error)
	LogTextInput(ctx context.Context, v identity.VisitorInfo, fieldID, formName, content string) (*domain.ActivityLogEntry, error)
	LogTextCopy(ctx context.Context, v identity.VisitorInfo, text, page string) (*domain.ActivityLogEntry, error)
	LogURLCopy(ctx context.Context, v identity.VisitorInfo, url string) (*domain.ActivityLogEntry, error)
	LogReferrer(ctx context.Context, v identity.VisitorInfo, referrerURL string) (*domain.ActivityLogEntry, error)
	LogTemplateCopy(ctx context.Context, v identity.VisitorInfo, templateID, templateName, content string) (*domain.ActivityLogEntry, error)
	LogContentCopy(ctx context.Context, v identity.VisitorInfo, contentType, contentID, text string) (*domain.ActivityLogEntry, error)
	LogAIInteraction(ctx context.Context, v identity.VisitorInfo, question, answer string) (*domain.ActivityLogEntry, error)
}

// AdminService defines the owner-only log operations
type AdminService interface {
	QueryLogs(ctx context.Context, filter domain.LogFilter) ([]domain.ActivityLogEntry, int64, error)
	CountLogs(ctx context.Context, filter domain.LogFilter) (int64, error)
	ExportLogs(ctx context.Context, owner identity.VisitorInfo, filter domain.LogFilter, format domain.ExportFormat) (*domain.Export, error)
	AcknowledgeDownload(ctx context.Context, owner identity.VisitorInfo) (domain.PermissionState, error)
	DeleteLogs(ctx context.Context, owner identity.VisitorInfo, filter domain.LogFilter) (int64, error)
	PermissionState(ctx context.Context, ownerID string) (domain.PermissionState, error)
	ThresholdStatus(ctx context.Context) (domain.ThresholdStatus, error)
	SourceCounters() map[string]int64
	ResetSourceCounters()
}
