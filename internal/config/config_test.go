package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.True(t, cfg.Workflow.RejectOrphans)
	assert.Equal(t, 30*time.Second, cfg.Notification.SSEKeepalive)
	assert.Equal(t, time.Hour, cfg.Cron.OrphanSweepInterval)
	assert.Empty(t, cfg.Telemetry.Endpoint)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("WORKFLOW_REJECT_ORPHANS", "false")
	t.Setenv("CRON_ORPHAN_SWEEP_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.False(t, cfg.Workflow.RejectOrphans)
	assert.Equal(t, 5*time.Minute, cfg.Cron.OrphanSweepInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("APP_PORT", "eighty")

	_, err := Load()
	assert.ErrorContains(t, err, "APP_PORT")
}

func TestLoad_RejectsZeroKeepalive(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("SSE_KEEPALIVE", "0s")

	_, err := Load()
	assert.ErrorContains(t, err, "SSE_KEEPALIVE must be positive")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:     DatabaseConfig{Driver: DriverPostgres, Password: "pw", MaxConns: 10, MinConns: 1},
			JWT:          JWTConfig{Secret: "secret", AccessExpiration: time.Hour},
			Notification: NotificationConfig{SSEKeepalive: 30 * time.Second, SSEBufferSize: 16},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "postgres without password", mutate: func(c *Config) { c.Database.Password = "" }, wantErr: "DB_PASSWORD"},
		{name: "memory without password", mutate: func(c *Config) { c.Database.Driver = DriverMemory; c.Database.Password = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: "STORE_DRIVER"},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET_KEY"},
		{name: "min above max", mutate: func(c *Config) { c.Database.MinConns = 20 }, wantErr: "DB_MIN_CONNS"},
		{name: "zero keepalive", mutate: func(c *Config) { c.Notification.SSEKeepalive = 0 }, wantErr: "SSE_KEEPALIVE"},
		{name: "negative keepalive", mutate: func(c *Config) { c.Notification.SSEKeepalive = -time.Second }, wantErr: "SSE_KEEPALIVE"},
		{name: "zero buffer", mutate: func(c *Config) { c.Notification.SSEBufferSize = 0 }, wantErr: "SSE_BUFFER_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
