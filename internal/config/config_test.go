package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"CALYPSO_CONFIG", "CALYPSO_DATA", "CALYPSO_DB", "CALYPSO_EXPORT_DIR", "CALYPSO_ADDR",
	"CALYPSO_LOG_LEVEL", "CALYPSO_PVALUE", "CALYPSO_FOLD_CHANGE", "CALYPSO_FETCH_WORKERS",
	"CALYPSO_ENGINE", "CALYPSO_PAGE_SIZE",
}

// clearEnv blanks every key; Load treats empty values as unset.
func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "db", "coverage.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("data", "exports"), cfg.ExportDir)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.05, cfg.Thresholds.PValue)
	assert.Equal(t, 2.0, cfg.Thresholds.FoldChange)
	assert.Equal(t, 1, cfg.FetchWorkers)
	assert.Equal(t, "edger", cfg.Engine)
	assert.Equal(t, 100, cfg.PageSize)
}

func TestLoadYAMLWithEnvironmentOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "calypso.yaml")
	yaml := `
data: /srv/calypso
addr: 127.0.0.1:9000
engine: fisher
thresholds:
  p_value: 0.01
  fold_change: 1.5
fetch_workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CALYPSO_CONFIG", path)
	t.Setenv("CALYPSO_ADDR", ":8081")
	t.Setenv("CALYPSO_FOLD_CHANGE", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/calypso", cfg.DataDir)
	assert.Equal(t, "/srv/calypso/db/coverage.db", cfg.DBPath)
	assert.Equal(t, ":8081", cfg.Addr)
	assert.Equal(t, "fisher", cfg.Engine)
	assert.Equal(t, 0.01, cfg.Thresholds.PValue)
	assert.Equal(t, 3.0, cfg.Thresholds.FoldChange)
	assert.Equal(t, 4, cfg.FetchWorkers)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"p-value above one", "CALYPSO_PVALUE", "1.5"},
		{"negative fold change", "CALYPSO_FOLD_CHANGE", "-1"},
		{"not a number", "CALYPSO_PVALUE", "abc"},
		{"negative workers", "CALYPSO_FETCH_WORKERS", "-2"},
		{"unknown engine", "CALYPSO_ENGINE", "deseq"},
		{"unknown log level", "CALYPSO_LOG_LEVEL", "chatty"},
		{"missing config file", "CALYPSO_CONFIG", "/nonexistent/calypso.yaml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
