// Package config loads and validates the factory service configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AEARedGEM/LuxuryX-Token-Factory/errors"
	"github.com/AEARedGEM/LuxuryX-Token-Factory/types"
)

// Defaults applied by Validate when a field is unset.
const (
	DefaultNATSURL        = "nats://localhost:4222"
	DefaultConnectTimeout = 5
	DefaultRequestTimeout = 10
	DefaultSubjectPrefix  = "luxuryx.factory.v1"
	DefaultQueueGroup     = "luxuryx-factory"
	DefaultMetricsListen  = ":9090"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
)

// Config is the complete service configuration.
type Config struct {
	Network string         `yaml:"network"`
	Admin   types.Identity `yaml:"admin"`
	NATS    NATSConfig     `yaml:"nats"`
	Buckets BucketConfig   `yaml:"buckets"`
	Gateway GatewayConfig  `yaml:"gateway"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Log     LogConfig      `yaml:"log"`
}

// NATSConfig holds the NATS connection settings. Timeouts are in seconds.
type NATSConfig struct {
	URL            string `yaml:"url"`
	CredsFile      string `yaml:"creds_file,omitempty"`
	Token          string `yaml:"token,omitempty"`
	TLSCert        string `yaml:"tls_cert,omitempty"`
	TLSKey         string `yaml:"tls_key,omitempty"`
	TLSCA          string `yaml:"tls_ca,omitempty"`
	ConnectTimeout int    `yaml:"connect_timeout,omitempty"`
	RequestTimeout int    `yaml:"request_timeout,omitempty"`
	MaxReconnects  int    `yaml:"max_reconnects,omitempty"`
}

// BucketConfig names the JetStream KV buckets for durable state.
type BucketConfig struct {
	Deployments string `yaml:"deployments,omitempty"`
	Templates   string `yaml:"templates,omitempty"`
	Meta        string `yaml:"meta,omitempty"`
	Delegations string `yaml:"delegations,omitempty"`
}

// GatewayConfig configures the request/reply API surface.
type GatewayConfig struct {
	SubjectPrefix  string `yaml:"subject_prefix,omitempty"`
	QueueGroup     string `yaml:"queue_group,omitempty"`
	RequestTimeout int    `yaml:"request_timeout,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, text
}

// Load reads a YAML configuration file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Config", "Load", "read file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s: %w", errors.ErrInvalidConfig, path, err),
			"Config", "Load", "parse yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and fills defaults in place.
func (c *Config) Validate() error {
	if c.Network == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: network is required", errors.ErrMissingConfig),
			"Config", "Validate", "network check")
	}

	if c.NATS.URL == "" {
		c.NATS.URL = DefaultNATSURL
	}
	if c.NATS.ConnectTimeout <= 0 {
		c.NATS.ConnectTimeout = DefaultConnectTimeout
	}
	if c.NATS.RequestTimeout <= 0 {
		c.NATS.RequestTimeout = DefaultRequestTimeout
	}
	if (c.NATS.TLSCert == "") != (c.NATS.TLSKey == "") {
		return errors.WrapInvalid(
			fmt.Errorf("%w: tls_cert and tls_key must be set together", errors.ErrInvalidConfig),
			"Config", "Validate", "tls check")
	}

	if c.Gateway.SubjectPrefix == "" {
		c.Gateway.SubjectPrefix = DefaultSubjectPrefix
	}
	if strings.HasSuffix(c.Gateway.SubjectPrefix, ".") {
		return errors.WrapInvalid(
			fmt.Errorf("%w: subject_prefix must not end with a dot", errors.ErrInvalidConfig),
			"Config", "Validate", "gateway check")
	}
	if c.Gateway.QueueGroup == "" {
		c.Gateway.QueueGroup = DefaultQueueGroup
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = DefaultRequestTimeout
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: unknown log level %q", errors.ErrInvalidConfig, c.Log.Level),
			"Config", "Validate", "log check")
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: unknown log format %q", errors.ErrInvalidConfig, c.Log.Format),
			"Config", "Validate", "log check")
	}

	return nil
}

// ConnectTimeoutDuration returns the NATS connect timeout as a duration.
func (n NATSConfig) ConnectTimeoutDuration() time.Duration {
	return time.Duration(n.ConnectTimeout) * time.Second
}

// RequestTimeoutDuration returns the NATS request timeout as a duration.
func (n NATSConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(n.RequestTimeout) * time.Second
}

// RequestTimeoutDuration returns the gateway request timeout as a duration.
func (g GatewayConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(g.RequestTimeout) * time.Second
}
