// Package permission implements the owner's export/delete permission lifecycle:
//
//	none --grant_download--> download --grant_delete--> delete --revoke_delete--> none
//
// Every other (state, event) pair is rejected and leaves the state unchanged.
package permission

import (
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

// States lists every permission state in cycle order.
var States = []domain.PermissionState{domain.PermissionNone, domain.PermissionDownload, domain.PermissionDelete}

// Events lists every permission event in cycle order.
var Events = []domain.PermissionEvent{domain.EventGrantDownload, domain.EventGrantDelete, domain.EventRevokeDelete}

// Apply is the transition function. Invalid pairs return *domain.InvalidTransitionError.
func Apply(state domain.PermissionState, event domain.PermissionEvent) (domain.PermissionState, error) {
	switch state {
	case domain.PermissionNone:
		if event == domain.EventGrantDownload {
			return domain.PermissionDownload, nil
		}
	case domain.PermissionDownload:
		if event == domain.EventGrantDelete {
			return domain.PermissionDelete, nil
		}
	case domain.PermissionDelete:
		if event == domain.EventRevokeDelete {
			return domain.PermissionNone, nil
		}
	}
	return state, &domain.InvalidTransitionError{From: state, Event: event}
}

// IsValidState reports whether s is one of the three states.
func IsValidState(s domain.PermissionState) bool {
	switch s {
	case domain.PermissionNone, domain.PermissionDownload, domain.PermissionDelete:
		return true
	}
	return false
}

// IsValidStateTransition reports whether some event moves from to to.
func IsValidStateTransition(from, to domain.PermissionState) bool {
	for _, ev := range Events {
		if next, err := Apply(from, ev); err == nil && next == to {
			return true
		}
	}
	return false
}

// CanGrantDownload reports whether an export may run in state s.
func CanGrantDownload(s domain.PermissionState) bool {
	return s == domain.PermissionNone
}

// CanGrantDelete reports whether a download may be acknowledged in state s.
func CanGrantDelete(s domain.PermissionState) bool {
	return s == domain.PermissionDownload
}

// CanRevokeDelete reports whether logs may be deleted in state s.
func CanRevokeDelete(s domain.PermissionState) bool {
	return s == domain.PermissionDelete
}

// SimulateStateTransition applies event to state without side effects and reports success.
func SimulateStateTransition(state domain.PermissionState, event domain.PermissionEvent) (domain.PermissionState, bool) {
	next, err := Apply(state, event)
	return next, err == nil
}

// SimulatePermissionCycle runs the full cycle from none and returns every visited state.
func SimulatePermissionCycle() ([]domain.PermissionState, error) {
	path := []domain.PermissionState{domain.PermissionNone}
	state := domain.PermissionNone
	for _, ev := range Events {
		next, err := Apply(state, ev)
		if err != nil {
			return path, err
		}
		path = append(path, next)
		state = next
	}
	return path, nil
}
