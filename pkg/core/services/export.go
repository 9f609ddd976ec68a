package services

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

var csvHeader = []string{"id", "userId", "action", "details", "ipAddress", "timestamp"}

// ParseExportFormat accepts "json" or "csv" (case-insensitive); empty means json.
func ParseExportFormat(s string) (domain.ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return domain.ExportJSON, nil
	case "csv":
		return domain.ExportCSV, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidFormat, s)
}

// ExportFilename names an export taken at t, e.g. activity-logs-20250301-120000.csv.
func ExportFilename(format domain.ExportFormat, t time.Time) string {
	return fmt.Sprintf("activity-logs-%s.%s", t.UTC().Format("20060102-150405"), format)
}

// EncodeExport renders entries in the requested format.
func EncodeExport(entries []domain.ActivityLogEntry, format domain.ExportFormat) ([]byte, string, error) {
	switch format {
	case domain.ExportJSON:
		data, err := EncodeJSON(entries)
		return data, "application/json", err
	case domain.ExportCSV:
		data, err := EncodeCSV(entries)
		return data, "text/csv; charset=utf-8", err
	}
	return nil, "", fmt.Errorf("%w: %q", domain.ErrInvalidFormat, format)
}

// EncodeJSON writes an array of entries with details as nested objects.
func EncodeJSON(entries []domain.ActivityLogEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.ActivityLogEntry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// EncodeCSV writes a header row and one row per entry. Every field is quoted; details are
// stored as a JSON string in a single field.
func EncodeCSV(entries []domain.ActivityLogEntry) ([]byte, error) {
	var buf bytes.Buffer
	writeCSVRow(&buf, csvHeader)

	for _, e := range entries {
		details := e.Details
		if details == nil {
			details = domain.Details{}
		}
		detailsJSON, err := json.Marshal(details)
		if err != nil {
			return nil, fmt.Errorf("encode details of entry %d: %w", e.ID, err)
		}
		writeCSVRow(&buf, []string{
			strconv.FormatInt(e.ID, 10),
			e.UserID,
			string(e.Action),
			string(detailsJSON),
			e.IPAddress,
			e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return buf.Bytes(), nil
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
