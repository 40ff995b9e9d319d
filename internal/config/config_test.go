package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{Args: []string{"secret-token"}, Environ: map[string]string{}})
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Discord.Token)
	assert.Equal(t, 0, cfg.Discord.Shards, "autosharded unless configured")
	assert.Equal(t, "^", cfg.Bot.Prefix)
	assert.True(t, cfg.Bot.ReplyArgumentErrors)
	assert.Equal(t, 12, cfg.Bot.MaxListedDice)
	assert.Equal(t, 4, cfg.Pool.Workers)
	assert.Equal(t, 64, cfg.Pool.QueueSize)
	assert.Equal(t, "reject", cfg.Pool.Overflow)
	assert.Equal(t, "https://myanimelist.net/api", cfg.MAL.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.MAL.Timeout)
	assert.Equal(t, 2048, cfg.MAL.SynopsisLimit)
	assert.EqualValues(t, 5, cfg.MAL.BreakerFailures)
	assert.Equal(t, "datastore.json", cfg.Storage.Path)
	assert.Equal(t, "output.log", cfg.Log.File)
	assert.Empty(t, cfg.Redis.Address)
	assert.Empty(t, cfg.Status.Address)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "plankboat.yaml", `
discord:
  token: from-file
bot:
  prefix: "!"
pool:
  workers: 2
  overflow: drop-oldest
mal:
  timeout: 3s
`)

	environ := map[string]string{
		"POOL_WORKERS":  "8",
		"MAL_USERNAME":  "mal-user",
		"REDIS_ADDRESS": "localhost:6379",
	}

	cfg, err := Load(Options{Args: []string{"-c", path, "--prefix", "?"}, Environ: environ})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Discord.Token)
	assert.Equal(t, "?", cfg.Bot.Prefix, "flag beats file")
	assert.Equal(t, 8, cfg.Pool.Workers, "env beats file")
	assert.Equal(t, "drop-oldest", cfg.Pool.Overflow)
	assert.Equal(t, 3*time.Second, cfg.MAL.Timeout)
	assert.Equal(t, "mal-user", cfg.MAL.Username)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoad_TokenFromEnv(t *testing.T) {
	cfg, err := Load(Options{Environ: map[string]string{"DISCORD_TOKEN": "env-token"}})
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Discord.Token)

	cfg, err = Load(Options{Args: []string{"arg-token"}, Environ: map[string]string{"DISCORD_TOKEN": "env-token"}})
	require.NoError(t, err)
	assert.Equal(t, "arg-token", cfg.Discord.Token)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "DISCORD_TOKEN=dotenv-token\n")
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")

	cfg, err := Load(Options{EnvFile: path})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Discord.Token)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(Options{
		Args:    []string{"tok"},
		EnvFile: filepath.Join(t.TempDir(), "missing.env"),
		Environ: map[string]string{},
	})
	assert.NoError(t, err)
}

func TestLoad_Shards(t *testing.T) {
	cfg, err := Load(Options{Args: []string{"tok", "--shards"}, Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Discord.Shards, "bare flag asks the gateway")

	cfg, err = Load(Options{Args: []string{"tok", "-s=3"}, Environ: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Discord.Shards)

	cfg, err = Load(Options{Args: []string{"tok"}, Environ: map[string]string{"DISCORD_SHARDS": "2"}})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Discord.Shards)
}

func TestLoad_MissingToken(t *testing.T) {
	_, err := Load(Options{Environ: map[string]string{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discord token is not set")
}

func TestLoad_BadConfigFile(t *testing.T) {
	_, err := Load(Options{Args: []string{"tok", "-c", filepath.Join(t.TempDir(), "nope.yaml")}, Environ: map[string]string{}})
	assert.Error(t, err)
}

func TestLoad_Help(t *testing.T) {
	_, err := Load(Options{Args: []string{"--help"}, Environ: map[string]string{}})
	assert.ErrorIs(t, err, ErrHelp)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(Options{Args: []string{"tok"}, Environ: map[string]string{}})
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty prefix", func(c *Config) { c.Bot.Prefix = "" }, "bot.prefix"},
		{"no workers", func(c *Config) { c.Pool.Workers = 0 }, "pool.workers"},
		{"no queue", func(c *Config) { c.Pool.QueueSize = -1 }, "pool.queue_size"},
		{"bad overflow", func(c *Config) { c.Pool.Overflow = "explode" }, "overflow"},
		{"negative shards", func(c *Config) { c.Discord.Shards = -2 }, "discord.shards"},
		{"tiny synopsis", func(c *Config) { c.MAL.SynopsisLimit = 2 }, "synopsis_limit"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
func TestUsage(t *testing.T) {
	u := Usage()
	assert.Contains(t, u, "--shards")
	assert.Contains(t, u, "--config")
}
