package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/adapters/notifier"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/config"
)

func TestLoadFilterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"test-1","fieldPatterns":["^nickname$"],"formPatterns":[]}`), 0o600))

	filter, err := loadFilter(path)
	require.NoError(t, err)
	assert.Equal(t, "test-1", filter.Version())
	assert.True(t, filter.IsSensitiveField("nickname"))
	assert.False(t, filter.IsSensitiveField("password"))

	_, err = loadFilter(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	assert.IsType(t, &notifier.LogNotifier{}, newNotifier(&config.Config{}))
	assert.IsType(t, &notifier.WebhookNotifier{}, newNotifier(&config.Config{NotifyWebhookURL: "https://hooks.example.com/x"}))
}

func TestNewAndClose(t *testing.T) {
	application, err := New(&config.Config{
		DatabaseURL: "file:app_new?mode=memory&cache=shared",
		LogLevel:    "disabled",
	})
	require.NoError(t, err)
	assert.Equal(t, 20, application.Tracker.PageSize())
	assert.Equal(t, int64(1000), application.Tracker.TotalEntryThreshold())
	assert.NoError(t, application.Close())
}
