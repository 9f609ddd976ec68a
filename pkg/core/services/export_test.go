package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

func TestEncodeCSV(t *testing.T) {
	entries := []domain.ActivityLogEntry{{
		ID:        7,
		UserID:    "u1",
		Action:    domain.ActionTextCopy,
		Details:   domain.Details{"text": `say "hi"`},
		IPAddress: "10.0.0.1",
		Timestamp: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}, {
		ID:        8,
		UserID:    "u2",
		Action:    domain.ActionVisitorAccess,
		IPAddress: "10.0.0.2",
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}}

	data, err := EncodeCSV(entries)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"id","userId","action","details","ipAddress","timestamp"`, lines[0])
	assert.Equal(t, `"7","u1","text_copy","{""text"":""say \""hi\""""}","10.0.0.1","2025-03-01T08:00:00Z"`, lines[1])
	assert.Equal(t, `"8","u2","visitor_access","{}","10.0.0.2","2025-03-01T09:00:00Z"`, lines[2])
}

func TestEncodeJSONEmpty(t *testing.T) {
	data, err := EncodeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportCSV, f)

	f, err = ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, domain.ExportJSON, f)

	_, err = ParseExportFormat("xml")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestExportFilename(t *testing.T) {
	ts := time.Date(2025, 12, 31, 23, 59, 1, 0, time.UTC)
	assert.Equal(t, "activity-logs-20251231-235901.csv", ExportFilename(domain.ExportCSV, ts))
}
