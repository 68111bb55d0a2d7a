package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "TeamJoker", cfg.Name)
	assert.Equal(t, 5, cfg.Rounds)
	assert.Equal(t, 13122, cfg.DiscoveryPort)
	assert.Equal(t, 5*time.Second, cfg.DiscoveryWait)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.Equal(t, 20*time.Second, cfg.IOTimeout)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	content := `
client {
  name              = "CountVonCount"
  rounds            = 12
  discovery_port    = 23122
  discovery_wait_ms = 1500
  io_timeout_ms     = 30000
}
`
	path := filepath.Join(t.TempDir(), "client.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "CountVonCount", cfg.Name)
	assert.Equal(t, 12, cfg.Rounds)
	assert.Equal(t, 23122, cfg.DiscoveryPort)
	assert.Equal(t, 1500*time.Millisecond, cfg.DiscoveryWait)
	assert.Equal(t, 30*time.Second, cfg.IOTimeout)

	// Fields the file omits keep their defaults
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
}

func TestLoadConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("client {"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty name",
			mutate:  func(c *Config) { c.Name = "" },
			wantErr: "name",
		},
		{
			name:    "zero rounds",
			mutate:  func(c *Config) { c.Rounds = 0 },
			wantErr: "rounds",
		},
		{
			name:    "too many rounds",
			mutate:  func(c *Config) { c.Rounds = 256 },
			wantErr: "rounds",
		},
		{
			name:    "bad discovery port",
			mutate:  func(c *Config) { c.DiscoveryPort = 0 },
			wantErr: "port",
		},
		{
			name:    "zero discovery wait",
			mutate:  func(c *Config) { c.DiscoveryWait = 0 },
			wantErr: "discovery wait",
		},
		{
			name:    "negative dial timeout",
			mutate:  func(c *Config) { c.DialTimeout = -time.Second },
			wantErr: "dial timeout",
		},
		{
			name:    "zero io timeout",
			mutate:  func(c *Config) { c.IOTimeout = 0 },
			wantErr: "io timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
