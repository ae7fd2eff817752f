package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "shopping_trends_updated.csv", cfg.Dataset.CSVFile)
	assert.Equal(t, ModeExport, cfg.Report.Mode)
	assert.Equal(t, []string{"svg", "png"}, cfg.Report.Formats)
	assert.Equal(t, 4, cfg.Report.Workers)
	assert.True(t, cfg.Report.Exports())
	assert.False(t, cfg.Report.Serves())
	assert.Equal(t, "localhost:8084", cfg.Address())
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
dataset:
  csv_file: "data/shopping.csv"
  load_timeout: 45s
report:
  mode: both
  output_dir: "out"
  formats: ["svg"]
  workers: 2
server:
  port: 9090
storage:
  s3_bucket: "reports-bucket"
  s3_region: "eu-west-1"
logger:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	t.Setenv("CONFIG_FILE", configPath)
	t.Setenv("REPORT_WORKERS", "8")
	t.Setenv("REPORT_FORMATS", "svg, png")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/shopping.csv", cfg.Dataset.CSVFile)
	assert.Equal(t, 45*time.Second, cfg.Dataset.LoadTimeout)
	assert.Equal(t, ModeBoth, cfg.Report.Mode)
	assert.Equal(t, "out", cfg.Report.OutputDir)
	assert.Equal(t, 8, cfg.Report.Workers)
	assert.Equal(t, []string{"svg", "png"}, cfg.Report.Formats)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "reports-bucket", cfg.Storage.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3Region)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Report.Serves())
	assert.True(t, cfg.Report.Exports())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad mode", "REPORT_MODE", "print"},
		{"bad format", "REPORT_FORMATS", "svg,gif"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero workers", "REPORT_WORKERS", "0"},
		{"tiny chart", "REPORT_WIDTH", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_ServerOnlyCheckedWhenServing(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	assert.NoError(t, cfg.validate())

	cfg.Report.Mode = ModeServe
	assert.Error(t, cfg.validate())
}
