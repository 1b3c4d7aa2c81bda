package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Entry.AnswersJson.p1.reportNum", cfg.Ingest.ReportNumPath)
	assert.True(t, cfg.Ingest.Archive)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(10), cfg.Upload.MaxSizeMB)
	assert.Equal(t, "local", cfg.OCR.Provider)
	assert.Equal(t, "pdftotext", cfg.OCR.PdfToTextPath)
	assert.Equal(t, "openai", cfg.Summarizer.Provider)
	assert.Equal(t, "gpt-4o", cfg.Summarizer.Model)
	assert.Equal(t, 500, cfg.Summarizer.MaxTokens)
	assert.Equal(t, 20, cfg.Summarizer.RequestsPerMinute)
	assert.Equal(t, "client-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "https://api.resend.com", cfg.Resend.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: inspections.db
log:
  level: debug
  format: console
server:
  port: 9090
summarizer:
  provider: anthropic
  model: claude-sonnet-4-5-20250929
report:
  recipients:
    - ops@example.com
    - safety@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Summarizer.Provider)
	assert.Equal(t, []string{"ops@example.com", "safety@example.com"}, cfg.Report.Recipients)
	// Defaults still apply for unset values
	assert.Equal(t, "uploads", cfg.Upload.Dir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INSPECT_STORE_DRIVER", "postgres")
	t.Setenv("INSPECT_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("INSPECT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// validDefaults returns a Config with the defaults needed by validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "inspections.db"
	cfg.Server.Port = 8080
	cfg.Upload.MaxSizeMB = 10
	cfg.Summarizer.Provider = "openai"
	return cfg
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateServe_BadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateServe_BadProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Summarizer.Provider = "cohere"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarizer.provider")
}

func TestValidateDocflow(t *testing.T) {
	cfg := validDefaults()
	cfg.Storage.Bucket = "client-bucket"
	cfg.Resend.Key = "re_key"
	cfg.Resend.From = "reports@example.com"

	assert.NoError(t, cfg.Validate("docflow"))

	cfg.Resend.Key = ""
	err := cfg.Validate("docflow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resend.key is required")
}

func TestValidateDailyReport(t *testing.T) {
	cfg := validDefaults()
	cfg.Resend.Key = "re_key"
	cfg.Resend.From = "reports@example.com"

	err := cfg.Validate("dailyreport")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.recipients is required")

	cfg.Report.Recipients = []string{"ops@example.com"}
	assert.NoError(t, cfg.Validate("dailyreport"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
