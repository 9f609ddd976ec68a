package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/services"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// AdminHandler serves the owner-only log endpoints.
type AdminHandler struct {
	service ports.AdminService
	mw      *Middleware
}

func NewAdminHandler(service ports.AdminService, mw *Middleware) *AdminHandler {
	return &AdminHandler{service: service, mw: mw}
}

func (h *AdminHandler) owner(r *http.Request) identity.VisitorInfo {
	return identity.NewVisitorInfo(h.mw.ClientIP(r), UserEmail(r.Context()), "", r.UserAgent(), "")
}

// parseFilter reads userId, action, ipAddress, startDate, endDate, page and pageSize.
func parseFilter(r *http.Request) (domain.LogFilter, error) {
	q := r.URL.Query()
	f := domain.LogFilter{
		UserID:    q.Get("userId"),
		Action:    q.Get("action"),
		IPAddress: q.Get("ipAddress"),
	}

	var err error
	if f.StartDate, err = services.ParseFilterDate(q.Get("startDate"), false); err != nil {
		return f, err
	}
	if f.EndDate, err = services.ParseFilterDate(q.Get("endDate"), true); err != nil {
		return f, err
	}
	if f.Page, err = parseInt(q.Get("page"), "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = parseInt(q.Get("pageSize"), "pageSize"); err != nil {
		return f, err
	}
	return f, nil
}

func parseInt(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad %s %q", domain.ErrInvalidInput, name, s)
	}
	return n, nil
}

func (h *AdminHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, total, err := h.service.QueryLogs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": total,
		"page":  page,
	})
}

func (h *AdminHandler) CountLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := h.service.CountLogs(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"total": total})
}

// Export streams the rendered dump as an attachment. It moves the owner to download, so it is
// POST only and a cross-site navigation cannot trigger it.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	export, err := h.service.ExportLogs(r.Context(), h.owner(r), filter, format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("X-Export-Count", strconv.Itoa(export.Count))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (h *AdminHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.AcknowledgeDownload(r.Context(), h.owner(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.PermissionState{"permissionState": state})
}

func (h *AdminHandler) DeleteLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.service.DeleteLogs(r.Context(), h.owner(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *AdminHandler) Permission(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.PermissionState(r.Context(), h.owner(r).ActorID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.PermissionState{"permissionState": state})
}

func (h *AdminHandler) Threshold(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.ThresholdStatus(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AdminHandler) Sources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.SourceCounters())
}

func (h *AdminHandler) ResetSources(w http.ResponseWriter, r *http.Request) {
	h.service.ResetSourceCounters()
	w.WriteHeader(http.StatusNoContent)
}
