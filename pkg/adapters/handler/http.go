package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/identity"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

const sessionCookie = "session_id"

// HTTPHandler serves the public activity logging endpoints.
type HTTPHandler struct {
	service      ports.ActivityLogger
	mw           *Middleware
	isProduction bool
}

func NewHTTPHandler(service ports.ActivityLogger, mw *Middleware, isProduction bool) *HTTPHandler {
	return &HTTPHandler{service: service, mw: mw, isProduction: isProduction}
}

type AccessRequest struct {
	Page     string `json:"page" validate:"max=2048"`
	Referrer string `json:"referrer" validate:"max=4096"`
}

type InputRequest struct {
	FieldID  string `json:"fieldId" validate:"required,max=200"`
	FormName string `json:"formName" validate:"max=200"`
	Content  string `json:"content"`
}

type TextCopyRequest struct {
	Text string `json:"text" validate:"required"`
	Page string `json:"page" validate:"max=2048"`
}

type URLCopyRequest struct {
	URL string `json:"url" validate:"required,max=4096"`
}

type TemplateCopyRequest struct {
	TemplateID   string `json:"templateId" validate:"required,max=200"`
	TemplateName string `json:"templateName" validate:"max=500"`
	Content      string `json:"content"`
}

type ContentCopyRequest struct {
	ContentType string `json:"contentType" validate:"required,max=100"`
	ContentID   string `json:"contentId" validate:"max=200"`
	Text        string `json:"text"`
}

type ReferrerRequest struct {
	ReferrerURL string `json:"referrerUrl" validate:"max=4096"`
}

type AIRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

type loggedResponse struct {
	ID        int64             `json:"id"`
	Action    domain.ActionKind `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

// visitor builds the visitor identity and issues a session cookie on first contact.
func (h *HTTPHandler) visitor(w http.ResponseWriter, r *http.Request) identity.VisitorInfo {
	sessionID := ""
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		sessionID = c.Value
	} else {
		sessionID = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.isProduction,
			SameSite: http.SameSiteLaxMode,
		})
	}

	userID, _ := h.mw.emailFromRequest(r)
	return identity.NewVisitorInfo(h.mw.ClientIP(r), userID, sessionID, r.UserAgent(), r.Referer())
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, entry *domain.ActivityLogEntry, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loggedResponse{ID: entry.ID, Action: entry.Action, Timestamp: entry.Timestamp})
}

func (h *HTTPHandler) Access(w http.ResponseWriter, r *http.Request) {
	var req AccessRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	v := h.visitor(w, r)
	if req.Referrer != "" {
		v.Referrer = req.Referrer
	}
	entry, err := h.service.LogVisitorAccess(r.Context(), v, req.Page)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogTextInput(r.Context(), h.visitor(w, r), req.FieldID, req.FormName, req.Content)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) TextCopy(w http.ResponseWriter, r *http.Request) {
	var req TextCopyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogTextCopy(r.Context(), h.visitor(w, r), req.Text, req.Page)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) URLCopy(w http.ResponseWriter, r *http.Request) {
	var req URLCopyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogURLCopy(r.Context(), h.visitor(w, r), req.URL)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) TemplateCopy(w http.ResponseWriter, r *http.Request) {
	var req TemplateCopyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogTemplateCopy(r.Context(), h.visitor(w, r), req.TemplateID, req.TemplateName, req.Content)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) ContentCopy(w http.ResponseWriter, r *http.Request) {
	var req ContentCopyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogContentCopy(r.Context(), h.visitor(w, r), req.ContentType, req.ContentID, req.Text)
	h.respond(w, r, entry, err)
}

// Referrer logs the referrer from the body, falling back to the Referer header.
func (h *HTTPHandler) Referrer(w http.ResponseWriter, r *http.Request) {
	var req ReferrerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogReferrer(r.Context(), h.visitor(w, r), req.ReferrerURL)
	h.respond(w, r, entry, err)
}

func (h *HTTPHandler) AIInteraction(w http.ResponseWriter, r *http.Request) {
	var req AIRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := h.service.LogAIInteraction(r.Context(), h.visitor(w, r), req.Question, req.Answer)
	h.respond(w, r, entry, err)
}
