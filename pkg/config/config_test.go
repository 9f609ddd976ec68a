package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("TRUST_PROXY_HEADERS", "")
	cfg := Load()

	assert.Equal(t, 20, cfg.PageSize, "unparsable values fall back")
	assert.Equal(t, 50, cfg.NotificationThreshold)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("OWNER_EMAILS", " owner@example.com, ,second@example.com ")
	cfg := Load()

	assert.Equal(t, 25, cfg.PageSize)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, []string{"owner@example.com", "second@example.com"}, cfg.OwnerEmails)
}

func TestIsOwner(t *testing.T) {
	cfg := &Config{OwnerEmails: []string{"Owner@Example.com"}}
	assert.True(t, cfg.IsOwner("owner@example.com"))
	assert.False(t, cfg.IsOwner("visitor@example.com"))

	open := &Config{}
	assert.True(t, open.IsOwner("anyone@example.com"))
	assert.False(t, open.IsOwner(""))
}
