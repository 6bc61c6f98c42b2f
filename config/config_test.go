package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
network: testnet
admin: admin-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Network)
	assert.Equal(t, DefaultNATSURL, cfg.NATS.URL)
	assert.Equal(t, DefaultSubjectPrefix, cfg.Gateway.SubjectPrefix)
	assert.Equal(t, DefaultQueueGroup, cfg.Gateway.QueueGroup)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.NATS.ConnectTimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.Gateway.RequestTimeoutDuration())
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
network: mainnet
admin: admin-1
nats:
  url: nats://nats.internal:4222
  connect_timeout: 3
  request_timeout: 15
buckets:
  deployments: lux_deployments
gateway:
  subject_prefix: luxuryx.factory.v2
  queue_group: factory-workers
metrics:
  enabled: true
log:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://nats.internal:4222", cfg.NATS.URL)
	assert.Equal(t, 3*time.Second, cfg.NATS.ConnectTimeoutDuration())
	assert.Equal(t, 15*time.Second, cfg.NATS.RequestTimeoutDuration())
	assert.Equal(t, "lux_deployments", cfg.Buckets.Deployments)
	assert.Equal(t, "luxuryx.factory.v2", cfg.Gateway.SubjectPrefix)
	assert.Equal(t, "factory-workers", cfg.Gateway.QueueGroup)
	assert.Equal(t, DefaultMetricsListen, cfg.Metrics.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "network: [unclosed")
	_, err := Load(path)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing network",
			mutate:  func(c *Config) { c.Network = "" },
			wantErr: pkgerrors.ErrMissingConfig,
		},
		{
			name:    "tls cert without key",
			mutate:  func(c *Config) { c.NATS.TLSCert = "cert.pem" },
			wantErr: pkgerrors.ErrInvalidConfig,
		},
		{
			name:    "trailing dot prefix",
			mutate:  func(c *Config) { c.Gateway.SubjectPrefix = "luxuryx.factory." },
			wantErr: pkgerrors.ErrInvalidConfig,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: pkgerrors.ErrInvalidConfig,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "logfmt" },
			wantErr: pkgerrors.ErrInvalidConfig,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Network: "testnet", Admin: "admin-1"}
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
