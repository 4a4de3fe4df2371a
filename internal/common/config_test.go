package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 4, config.Queue.Concurrency)
	assert.Equal(t, "enricher_logs", config.Engine.LogDir)
	assert.Equal(t, time.Second, config.PollInterval())
	assert.Equal(t, 5*time.Minute, config.VisibilityTimeout())
	assert.Equal(t, 10*time.Second, config.RequestTimeout())
	assert.NoError(t, config.Validate())
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowsint.toml")
	content := `
environment = "production"

[server]
port = 9090

[queue]
concurrency = 8

[engine]
log_dir = "/tmp/engine_logs"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.True(t, config.IsProduction())
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 8, config.Queue.Concurrency)
	assert.Equal(t, "/tmp/engine_logs", config.Engine.LogDir)
	// Untouched sections keep their defaults
	assert.Equal(t, "localhost", config.Server.Host)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FLOWSINT_SERVER_PORT", "7070")
	t.Setenv("FLOWSINT_LOG_LEVEL", "debug")
	t.Setenv("FLOWSINT_QUEUE_CONCURRENCY", "2")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 2, config.Queue.Concurrency)
}

func TestFlagOverridesWin(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 6060, "0.0.0.0")

	assert.Equal(t, 6060, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Server.Port = -1
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Queue.PollInterval = "not-a-duration"
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Queue.Concurrency = 0
	assert.Error(t, config.Validate())
}

func TestIsVaultEntryID(t *testing.T) {
	assert.True(t, IsVaultEntryID(NewVaultEntryID()))
	assert.True(t, IsVaultEntryID("0f8fad5b-d9cb-469f-a165-70867728950e"))
	assert.False(t, IsVaultEntryID("MY_API_KEY"))
	assert.False(t, IsVaultEntryID("vlt_not-a-uuid"))
	assert.False(t, IsVaultEntryID(""))
}
