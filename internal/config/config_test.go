package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-ai/eve/internal/config"
	"github.com/tailored-ai/eve/internal/storage/sqlite"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.SecurityMode)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.LLM.TimeoutSeconds)
	assert.Equal(t, 2, cfg.Agent.DefaultEngagementLevel)
	assert.Equal(t, 70, cfg.Agent.ReflectionThreshold)
	assert.Equal(t, 15, cfg.Agent.MemoryContextLimit)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EVE_PORT", "9000")
	t.Setenv("EVE_DB_DRIVER", "postgres")
	t.Setenv("EVE_LLM_MODEL", "anthropic/claude-sonnet")
	t.Setenv("EVE_SECURITY_MODE", "production")
	t.Setenv("EVE_DEFAULT_ENGAGEMENT_LEVEL", "3")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "anthropic/claude-sonnet", cfg.LLM.Model)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 3, cfg.Agent.DefaultEngagementLevel)
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("EVE_PORT", "not-a-number")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 8484, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eve.yaml")
	contents := `
server:
  port: 9090
llm:
  model: openai/gpt-4o
agent:
  reflection_threshold: 80
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai/gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 80, cfg.Agent.ReflectionThreshold)
	// Values absent from the file keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromStoreAndSave(t *testing.T) {
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Nothing persisted yet: env/defaults apply.
	cfg, err := config.LoadFromStore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)

	cfg.LLM.Model = "openai/gpt-4o"
	cfg.Agent.DefaultEngagementLevel = 3
	require.NoError(t, cfg.Save(ctx, store))

	reloaded, err := config.LoadFromStore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", reloaded.LLM.Model)
	assert.Equal(t, 3, reloaded.Agent.DefaultEngagementLevel)
}
