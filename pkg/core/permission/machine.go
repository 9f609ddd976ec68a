package permission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/metrics"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

const restoreDelete = "restore_delete"

// Machine applies permission events against a PermissionStore.
type Machine struct {
	store ports.PermissionStore
	log   zerolog.Logger
}

// NewMachine creates a machine over store.
func NewMachine(store ports.PermissionStore) *Machine {
	return &Machine{
		store: store,
		log:   logging.With().Str("component", "permission").Logger(),
	}
}

// GetPermissionState returns the owner's current state.
func (m *Machine) GetPermissionState(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	state, err := m.store.Load(ctx, ownerID)
	if err != nil {
		return "", domain.Persistence("load permission", err)
	}
	return state, nil
}

// Fire applies event for ownerID as a single compare-and-swap. A concurrent transition from
// the same state makes this call fail with an InvalidTransitionError.
func (m *Machine) Fire(ctx context.Context, ownerID string, event domain.PermissionEvent) (domain.PermissionState, error) {
	from, err := m.GetPermissionState(ctx, ownerID)
	if err != nil {
		metrics.PermissionTransitions.WithLabelValues(string(event), "error").Inc()
		return "", err
	}

	to, err := Apply(from, event)
	if err != nil {
		m.reject(ownerID, from, event)
		return from, err
	}

	swapped, err := m.store.CompareAndSwap(ctx, ownerID, from, to)
	if err != nil {
		metrics.PermissionTransitions.WithLabelValues(string(event), "error").Inc()
		return from, domain.Persistence("store permission", err)
	}
	if !swapped {
		// lost the race; report the state the winner left behind
		if current, lerr := m.store.Load(ctx, ownerID); lerr == nil {
			from = current
		}
		m.reject(ownerID, from, event)
		return from, &domain.InvalidTransitionError{From: from, Event: event}
	}

	metrics.PermissionTransitions.WithLabelValues(string(event), "applied").Inc()
	m.log.Info().Str("owner", ownerID).Str("from", string(from)).Str("to", string(to)).Msg("permission transition")
	return to, nil
}

// GrantDownloadPermission moves none -> download after a successful export.
func (m *Machine) GrantDownloadPermission(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	return m.Fire(ctx, ownerID, domain.EventGrantDownload)
}

// GrantDeletePermission moves download -> delete once the download is acknowledged.
func (m *Machine) GrantDeletePermission(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	return m.Fire(ctx, ownerID, domain.EventGrantDelete)
}

// RevokeDeletePermission moves delete -> none after the deletion completed.
func (m *Machine) RevokeDeletePermission(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	return m.Fire(ctx, ownerID, domain.EventRevokeDelete)
}

// RestoreDeletePermission hands a claimed delete permission back (none -> delete) after a
// deletion that did not complete. It fails if the state moved on in the meantime.
func (m *Machine) RestoreDeletePermission(ctx context.Context, ownerID string) error {
	swapped, err := m.store.CompareAndSwap(ctx, ownerID, domain.PermissionNone, domain.PermissionDelete)
	if err != nil {
		metrics.PermissionTransitions.WithLabelValues(restoreDelete, "error").Inc()
		return domain.Persistence("store permission", err)
	}
	if !swapped {
		metrics.PermissionTransitions.WithLabelValues(restoreDelete, "rejected").Inc()
		return fmt.Errorf("%w: delete permission cannot be restored, state changed", domain.ErrInvalidTransition)
	}
	metrics.PermissionTransitions.WithLabelValues(restoreDelete, "applied").Inc()
	m.log.Info().Str("owner", ownerID).Msg("delete permission restored")
	return nil
}

func (m *Machine) reject(ownerID string, from domain.PermissionState, event domain.PermissionEvent) {
	metrics.PermissionTransitions.WithLabelValues(string(event), "rejected").Inc()
	m.log.Warn().Str("owner", ownerID).Str("state", string(from)).Str("event", string(event)).Msg("permission transition rejected")
}

// MemoryStore keeps permission states in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]domain.PermissionState
}

// NewMemoryStore creates an empty store; unknown owners are in state none.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]domain.PermissionState)}
}

// Load implements ports.PermissionStore.
func (s *MemoryStore) Load(ctx context.Context, ownerID string) (domain.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[ownerID]; ok {
		return st, nil
	}
	return domain.PermissionNone, nil
}

// CompareAndSwap implements ports.PermissionStore.
func (s *MemoryStore) CompareAndSwap(ctx context.Context, ownerID string, from, to domain.PermissionState) (bool, error) {
	if !IsValidState(to) {
		return false, errors.New("unknown permission state " + string(to))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.states[ownerID]
	if !ok {
		current = domain.PermissionNone
	}
	if current != from {
		return false, nil
	}
	s.states[ownerID] = to
	return true, nil
}

// Reset forgets every owner's state.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]domain.PermissionState)
}

var _ ports.PermissionStore = (*MemoryStore)(nil)
