package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memeologia", cfg.MongoDatabase)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.Equal(t, int64(5), cfg.ReportThreshold)
	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.KafkaBrokers)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "MEME_HTTP_ADDR=:9090\nMEME_MODERATOR_EMAILS=a@example.com;b@example.com\nMEME_REPORT_THRESHOLD=3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MEME_HTTP_ADDR")
		os.Unsetenv("MEME_MODERATOR_EMAILS")
		os.Unsetenv("MEME_REPORT_THRESHOLD")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.ModeratorEmails)
	assert.Equal(t, int64(3), cfg.ReportThreshold)
}
