package domain

import "time"

// ActionKind names the visitor or owner action an entry records.
type ActionKind string

const (
	ActionVisitorAccess       ActionKind = "visitor_access"
	ActionTextInput           ActionKind = "text_input"
	ActionTextCopy            ActionKind = "text_copy"
	ActionURLCopy             ActionKind = "url_copy"
	ActionReferrer            ActionKind = "referrer"
	ActionTemplateCopy        ActionKind = "template_copy"
	ActionContentCopy         ActionKind = "content_copy"
	ActionAIInteraction       ActionKind = "ai_interaction"
	ActionLogsExported        ActionKind = "logs_exported"
	ActionDownloadAcknowledge ActionKind = "download_acknowledged"
	ActionLogsDeleted         ActionKind = "logs_deleted"
	ActionPermissionViolation ActionKind = "permission_violation"
)

// ActionAll is the filter value meaning "any action".
const ActionAll = "all"

// Details is the JSON object stored alongside every entry.
type Details map[string]interface{}

// ActivityLogEntry is one immutable audit record of a visitor action.
type ActivityLogEntry struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"userId"`
	Action    ActionKind `json:"action"`
	Details   Details    `json:"details"`
	IPAddress string     `json:"ipAddress"`
	Timestamp time.Time  `json:"timestamp"`
}

// LogFilter narrows admin queries. Zero values mean "no constraint".
type LogFilter struct {
	UserID    string     `json:"userId,omitempty"`
	Action    string     `json:"action,omitempty"`
	IPAddress string     `json:"ipAddress,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Page      int        `json:"page,omitempty"`
	PageSize  int        `json:"pageSize,omitempty"`
}

// HasAction reports whether the filter constrains the action column.
func (f LogFilter) HasAction() bool {
	return f.Action != "" && f.Action != ActionAll
}

// Offset returns the row offset for the current page. Page and PageSize must be normalized.
func (f LogFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Unpaged returns a copy of the filter without pagination.
func (f LogFilter) Unpaged() LogFilter {
	f.Page = 0
	f.PageSize = 0
	return f
}
