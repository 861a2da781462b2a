package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand(t *testing.T, cfg *Config, configBody string) *cobra.Command {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(configBody), 0644))

	cmd := &cobra.Command{Use: "test"}
	AddCommonFlags(cmd.Flags(), cfg)
	require.NoError(t, cmd.Flags().Set("config", configPath))
	return cmd
}

func TestConfigLoader_Defaults(t *testing.T) {
	var cfg Config
	loader := NewConfigLoader()
	cmd := newTestCommand(t, &cfg, "")

	require.NoError(t, loader.InitializeConfig(cmd))
	require.NoError(t, loader.Load(&cfg))

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.GracefulShutdown)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 10*1024*1024, cfg.Cache.MaxSize)
	assert.Equal(t, true, cfg.DB.Pool.Enable)
	assert.Equal(t, 10*time.Minute, cfg.DB.Pool.MaxLifetime)
	assert.Equal(t, true, cfg.TG.RateLimit)
	assert.Equal(t, 24*time.Hour, cfg.CronJobs.StaleBatchAge)
	assert.Empty(t, cfg.Bot.Admins)
}

func TestConfigLoader_FileOverride(t *testing.T) {
	var cfg Config
	loader := NewConfigLoader()
	cmd := newTestCommand(t, &cfg, `
[server]
port = 9000
graceful-shutdown = "30s"

[bot]
token = "123:abc"
archive-channel-id = -1001234567890
admins = [111, 222]

[tg]
app-id = 12345
app-hash = "hash"
`)

	require.NoError(t, loader.InitializeConfig(cmd))
	require.NoError(t, loader.Load(&cfg))

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.GracefulShutdown)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, int64(-1001234567890), cfg.Bot.ArchiveChannelId)
	assert.Equal(t, []int64{111, 222}, cfg.Bot.Admins)
	assert.NoError(t, Validate(&cfg))
}

func TestValidate_MissingRequired(t *testing.T) {
	var cfg Config
	loader := NewConfigLoader()
	cmd := newTestCommand(t, &cfg, "")

	require.NoError(t, loader.InitializeConfig(cmd))
	require.NoError(t, loader.Load(&cfg))

	assert.Error(t, Validate(&cfg))
}
