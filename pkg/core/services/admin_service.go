package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/permission"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/referrer"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/threshold"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// MaxPageSize caps admin query pages.
const MaxPageSize = 200

// AdminService runs the owner-only export and deletion flow.
type AdminService struct {
	repo    ports.ActivityRepository
	machine *permission.Machine
	tracker *threshold.Tracker
	counter *referrer.Counter
	now     func() time.Time
	log     zerolog.Logger
}

func NewAdminService(repo ports.ActivityRepository, machine *permission.Machine, tracker *threshold.Tracker, counter *referrer.Counter) *AdminService {
	return &AdminService{
		repo:    repo,
		machine: machine,
		tracker: tracker,
		counter: counter,
		now:     time.Now,
		log:     logging.With().Str("component", "admin").Logger(),
	}
}

// NormalizeFilter applies paging defaults and treats action "all" as unfiltered.
func NormalizeFilter(f domain.LogFilter, defaultPageSize int) (domain.LogFilter, error) {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return f, fmt.Errorf("%w: startDate is after endDate", domain.ErrInvalidInput)
	}
	f.UserID = strings.TrimSpace(f.UserID)
	f.Action = strings.TrimSpace(f.Action)
	if !f.HasAction() {
		f.Action = ""
	}
	if f.IPAddress != "" {
		f.IPAddress = identity.NormalizeIP(f.IPAddress)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return f, nil
}

// ParseFilterDate accepts RFC 3339 or a bare YYYY-MM-DD date. A bare end date covers the
// whole day. An empty string means no bound.
func ParseFilterDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// QueryLogs returns one page of entries and the total number of matches.
func (s *AdminService) QueryLogs(ctx context.Context, filter domain.LogFilter) ([]domain.ActivityLogEntry, int64, error) {
	f, err := NormalizeFilter(filter, s.tracker.PageSize())
	if err != nil {
		return nil, 0, err
	}

	entries, err := s.repo.Query(ctx, f)
	if err != nil {
		return nil, 0, domain.Persistence("query logs", err)
	}
	total, err := s.repo.Count(ctx, f.Unpaged())
	if err != nil {
		return nil, 0, domain.Persistence("count logs", err)
	}
	return entries, total, nil
}

// CountLogs counts every entry matching filter, ignoring pagination.
func (s *AdminService) CountLogs(ctx context.Context, filter domain.LogFilter) (int64, error) {
	f, err := NormalizeFilter(filter, s.tracker.PageSize())
	if err != nil {
		return 0, err
	}
	total, err := s.repo.Count(ctx, f.Unpaged())
	if err != nil {
		return 0, domain.Persistence("count logs", err)
	}
	return total, nil
}

// ExportLogs dumps every entry matching filter. It is only allowed in state none, and a
// successful export moves the owner to download.
func (s *AdminService) ExportLogs(ctx context.Context, owner identity.VisitorInfo, filter domain.LogFilter, format domain.ExportFormat) (*domain.Export, error) {
	ownerID := owner.ActorID()

	state, err := s.machine.GetPermissionState(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !permission.CanGrantDownload(state) {
		return nil, &domain.InvalidTransitionError{From: state, Event: domain.EventGrantDownload}
	}

	f, err := NormalizeFilter(filter, s.tracker.PageSize())
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.Query(ctx, f.Unpaged())
	if err != nil {
		return nil, domain.Persistence("query export", err)
	}

	data, contentType, err := EncodeExport(entries, format)
	if err != nil {
		return nil, err
	}
	export := &domain.Export{
		Filename:    ExportFilename(format, s.now()),
		Format:      format,
		ContentType: contentType,
		Count:       len(entries),
		Data:        data,
	}

	if _, err := s.machine.GrantDownloadPermission(ctx, ownerID); err != nil {
		return nil, err
	}

	s.audit(ctx, owner, domain.ActionLogsExported, domain.Details{
		"format":   string(format),
		"count":    export.Count,
		"filename": export.Filename,
	})
	s.log.Info().Str("owner", ownerID).Str("format", string(format)).Int("count", export.Count).Msg("logs exported")
	return export, nil
}

// AcknowledgeDownload confirms the owner has the export and grants delete permission.
func (s *AdminService) AcknowledgeDownload(ctx context.Context, owner identity.VisitorInfo) (domain.PermissionState, error) {
	state, err := s.machine.GrantDeletePermission(ctx, owner.ActorID())
	if err != nil {
		return state, err
	}
	s.audit(ctx, owner, domain.ActionDownloadAcknowledge, domain.Details{
		"permissionState": string(state),
	})
	return state, nil
}

// DeleteLogs removes every entry matching filter. The delete permission is claimed (delete -> none)
// before any row is read, so concurrent calls have a single winner. Without the permission the
// attempt is recorded as a violation and nothing is removed. The winner writes a logs_deleted entry
// before removing rows and restarts the threshold cycle; if the deletion fails the permission is
// handed back for a retry.
func (s *AdminService) DeleteLogs(ctx context.Context, owner identity.VisitorInfo, filter domain.LogFilter) (int64, error) {
	ownerID := owner.ActorID()

	f, err := NormalizeFilter(filter, s.tracker.PageSize())
	if err != nil {
		return 0, err
	}

	if _, err := s.machine.RevokeDeletePermission(ctx, ownerID); err != nil {
		var te *domain.InvalidTransitionError
		if !errors.As(err, &te) {
			return 0, err
		}
		s.audit(ctx, owner, domain.ActionPermissionViolation, domain.Details{
			"attemptedAction": "delete_logs",
			"permissionState": string(te.From),
		})
		s.log.Warn().Str("owner", ownerID).Str("state", string(te.From)).Msg("log deletion without delete permission")
		return 0, fmt.Errorf("%w: deleting logs requires %q permission, current state is %q",
			domain.ErrPermissionDenied, domain.PermissionDelete, te.From)
	}

	deleted, err := s.deleteMatching(ctx, owner, f)
	if err != nil {
		if rerr := s.machine.RestoreDeletePermission(ctx, ownerID); rerr != nil {
			s.log.Error().Err(rerr).Str("owner", ownerID).Msg("delete permission not restored after failed deletion")
		}
		return 0, err
	}
	s.tracker.Reset()

	s.log.Info().Str("owner", ownerID).Int64("deleted", deleted).Msg("logs deleted")
	return deleted, nil
}

// deleteMatching resolves the delete set, records it, then removes it. The logs_deleted entry
// is written after the set is resolved and so always survives.
func (s *AdminService) deleteMatching(ctx context.Context, owner identity.VisitorInfo, f domain.LogFilter) (int64, error) {
	entries, err := s.repo.Query(ctx, f.Unpaged())
	if err != nil {
		return 0, domain.Persistence("query delete set", err)
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	record := s.newOwnerEntry(owner, domain.ActionLogsDeleted, domain.Details{
		"requestedCount": len(ids),
		"filter":         describeFilter(f),
	})
	if err := s.repo.Write(ctx, record); err != nil {
		return 0, domain.Persistence("write deletion record", err)
	}

	deleted, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, domain.Persistence("delete logs", err)
	}
	return deleted, nil
}

func (s *AdminService) PermissionState(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	return s.machine.GetPermissionState(ctx, ownerID)
}

// ThresholdStatus reports the current volume without marking a notification.
func (s *AdminService) ThresholdStatus(ctx context.Context) (domain.ThresholdStatus, error) {
	total, err := s.repo.Count(ctx, domain.LogFilter{})
	if err != nil {
		return domain.ThresholdStatus{}, domain.Persistence("count logs", err)
	}
	return s.tracker.Status(total), nil
}

func (s *AdminService) SourceCounters() map[string]int64 {
	return s.counter.Snapshot()
}

// ResetSourceCounters zeroes the referrer counters. The threshold cycle is not affected.
func (s *AdminService) ResetSourceCounters() {
	s.counter.Reset()
	s.log.Info().Msg("source counters reset")
}

func (s *AdminService) newOwnerEntry(owner identity.VisitorInfo, action domain.ActionKind, details domain.Details) *domain.ActivityLogEntry {
	owner = owner.Normalized()
	return &domain.ActivityLogEntry{
		UserID:    owner.ActorID(),
		Action:    action,
		Details:   details,
		IPAddress: owner.IPAddress,
		Timestamp: s.now().UTC(),
	}
}

// audit writes an owner entry; failures are logged only.
func (s *AdminService) audit(ctx context.Context, owner identity.VisitorInfo, action domain.ActionKind, details domain.Details) {
	if err := s.repo.Write(ctx, s.newOwnerEntry(owner, action, details)); err != nil {
		s.log.Error().Err(err).Str("action", string(action)).Msg("owner audit entry not written")
	}
}

func describeFilter(f domain.LogFilter) domain.Details {
	d := domain.Details{}
	if f.UserID != "" {
		d["userId"] = f.UserID
	}
	if f.Action != "" {
		d["action"] = f.Action
	}
	if f.IPAddress != "" {
		d["ipAddress"] = f.IPAddress
	}
	if f.StartDate != nil {
		d["startDate"] = f.StartDate.UTC().Format(time.RFC3339)
	}
	if f.EndDate != nil {
		d["endDate"] = f.EndDate.UTC().Format(time.RFC3339)
	}
	return d
}

var _ ports.AdminService = (*AdminService)(nil)
