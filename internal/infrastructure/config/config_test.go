package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ledger:
  base_url: https://ledger.example.com
  token: abc123
tagging:
  no_itemize: true
  description_prefix: "Amazon.com: "
storage:
  database_path: runs.db
observability:
  logging:
    level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://ledger.example.com", cfg.Ledger.BaseURL)
	assert.Equal(t, "abc123", cfg.Ledger.Token)
	assert.True(t, cfg.Tagging.NoItemize)
	assert.Equal(t, "runs.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)

	// Unset fields pick up defaults.
	assert.Equal(t, "Amazon.com refund: ", cfg.Tagging.RefundPrefix)
	assert.Equal(t, "amazon", cfg.Tagging.MerchantKeyword)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_LEDGER_TOKEN", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "ledger:\n  token: ${TEST_LEDGER_TOKEN}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Ledger.Token)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TAGGER_DB_PATH", "test.db")
	t.Setenv("LEDGER_TOKEN", "test-token")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "test-token", cfg.Ledger.Token)
	assert.Equal(t, "Amazon.com: ", cfg.Tagging.DescriptionPrefix)
}

func TestLoadOrEnvFallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
}
