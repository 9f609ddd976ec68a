// Package threshold tracks activity log volume and decides when the owner is notified.
//
// A notification fires at most once per threshold cycle. The cycle ends when the tracker is
// reset, which the admin service does after a completed log deletion.
package threshold

import (
	"sync"
	"time"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

const (
	// PageSize is the number of entries shown per admin page.
	PageSize = 20
	// NotificationThreshold is the number of pages that triggers a notification.
	NotificationThreshold = 50
	// TotalEntryThreshold is the entry count equivalent of NotificationThreshold.
	TotalEntryThreshold = PageSize * NotificationThreshold
)

// CalculatePageCount returns ceil(totalEntries / PageSize), 0 for no entries.
func CalculatePageCount(totalEntries int64) int64 {
	return pageCount(totalEntries, PageSize)
}

// IsThresholdReached reports whether totalEntries is at or above TotalEntryThreshold.
func IsThresholdReached(totalEntries int64) bool {
	return totalEntries >= TotalEntryThreshold
}

// CreateThresholdStatus computes the status for totalEntries using the default constants.
// fire is true only when the threshold is reached and no notification was sent this cycle;
// in that case NotifiedAt is set to now.
func CreateThresholdStatus(totalEntries int64, previousNotifiedAt *time.Time, now time.Time) (domain.ThresholdStatus, bool) {
	return createStatus(totalEntries, PageSize, TotalEntryThreshold, previousNotifiedAt, now)
}

func pageCount(total, size int64) int64 {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func createStatus(total, size, limit int64, prev *time.Time, now time.Time) (domain.ThresholdStatus, bool) {
	status := domain.ThresholdStatus{
		TotalEntries:     total,
		PageCount:        pageCount(total, size),
		ThresholdReached: total >= limit,
		NotifiedAt:       prev,
	}
	if !status.ThresholdReached || prev != nil {
		return status, false
	}
	at := now
	status.NotifiedAt = &at
	return status, true
}

// Tracker holds the notified-at mark for the current cycle.
type Tracker struct {
	pageSize int64
	limit    int64
	now      func() time.Time

	mu         sync.Mutex
	notifiedAt *time.Time
}

// NewTracker creates a tracker. Non-positive arguments fall back to the package defaults.
func NewTracker(pageSize, notificationPages int) *Tracker {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if notificationPages <= 0 {
		notificationPages = NotificationThreshold
	}
	return &Tracker{
		pageSize: int64(pageSize),
		limit:    int64(pageSize) * int64(notificationPages),
		now:      time.Now,
	}
}

// PageSize returns the configured entries per page.
func (t *Tracker) PageSize() int {
	return int(t.pageSize)
}

// TotalEntryThreshold returns the configured entry threshold.
func (t *Tracker) TotalEntryThreshold() int64 {
	return t.limit
}

// Evaluate computes the status for totalEntries and marks the cycle as notified when it fires.
// Concurrent callers above the threshold see exactly one fire.
func (t *Tracker) Evaluate(totalEntries int64) (domain.ThresholdStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, fire := createStatus(totalEntries, t.pageSize, t.limit, t.notifiedAt, t.now())
	if fire {
		t.notifiedAt = status.NotifiedAt
	}
	return status, fire
}

// Status computes the status without marking anything.
func (t *Tracker) Status(totalEntries int64) domain.ThresholdStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	status, _ := createStatus(totalEntries, t.pageSize, t.limit, t.notifiedAt, t.now())
	status.NotifiedAt = t.notifiedAt
	return status
}

// NotifiedAt returns when the current cycle fired, or nil.
func (t *Tracker) NotifiedAt() *time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notifiedAt
}

// Reset starts a new cycle.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifiedAt = nil
}
