package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

var errStoreDown = errors.New("store down")

// memRepo is an in-memory ActivityRepository with switchable failures.
type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	entries   []domain.ActivityLogEntry
	referrers []domain.ReferrerLog

	failWrite  bool
	failDelete bool
}

func (r *memRepo) Write(ctx context.Context, entry *domain.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite {
		return errStoreDown
	}
	r.nextID++
	entry.ID = r.nextID
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memRepo) WriteReferrer(ctx context.Context, entry *domain.ActivityLogEntry, ref *domain.ReferrerLog) error {
	if err := r.Write(ctx, entry); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.referrers = append(r.referrers, *ref)
	return nil
}

func (r *memRepo) match(f domain.LogFilter, e domain.ActivityLogEntry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.HasAction() && string(e.Action) != f.Action {
		return false
	}
	if f.IPAddress != "" && e.IPAddress != f.IPAddress {
		return false
	}
	if f.StartDate != nil && e.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.Timestamp.After(*f.EndDate) {
		return false
	}
	return true
}

func (r *memRepo) Query(ctx context.Context, f domain.LogFilter) ([]domain.ActivityLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.ActivityLogEntry{}
	for _, e := range r.entries {
		if r.match(f, e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.PageSize > 0 {
		start := f.Offset()
		if start >= len(out) {
			return []domain.ActivityLogEntry{}, nil
		}
		end := start + f.PageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func (r *memRepo) Count(ctx context.Context, f domain.LogFilter) (int64, error) {
	entries, err := r.Query(ctx, f.Unpaged())
	return int64(len(entries)), err
}

func (r *memRepo) Delete(ctx context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete {
		return 0, errStoreDown
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.entries[:0]
	var n int64
	for _, e := range r.entries {
		if drop[e.ID] {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return n, nil
}

func (r *memRepo) actions() []domain.ActionKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActionKind, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type countingTrigger struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTrigger) Trigger() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// hookRepo runs beforeDelete once, ahead of the first Delete.
type hookRepo struct {
	*memRepo
	beforeDelete func()
}

func (r *hookRepo) Delete(ctx context.Context, ids []int64) (int64, error) {
	if hook := r.beforeDelete; hook != nil {
		r.beforeDelete = nil
		hook()
	}
	return r.memRepo.Delete(ctx, ids)
}
