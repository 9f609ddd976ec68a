package domain

// PermissionState is the owner's position in the export/delete lifecycle.
type PermissionState string

const (
	PermissionNone     PermissionState = "none"
	PermissionDownload PermissionState = "download"
	PermissionDelete   PermissionState = "delete"
)

// PermissionEvent drives a PermissionState transition.
type PermissionEvent string

const (
	EventGrantDownload PermissionEvent = "grant_download"
	EventGrantDelete   PermissionEvent = "grant_delete"
	EventRevokeDelete  PermissionEvent = "revoke_delete"
)

// ExportFormat selects the log export encoding.
type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

// Export is a rendered log dump ready to be served as a download.
type Export struct {
	Filename    string       `json:"filename"`
	Format      ExportFormat `json:"format"`
	ContentType string       `json:"contentType"`
	Count       int          `json:"count"`
	Data        []byte       `json:"-"`
}
