package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/dumbstore/internal/errors"
	"github.com/vango-dev/dumbstore/pkg/store"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "dumbstore.json"

	// DefaultPort is the default server port.
	DefaultPort = 3000

	// DefaultHost is the default server host.
	DefaultHost = "localhost"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultLivePath is where the live WebSocket endpoint is served.
	DefaultLivePath = "/live"

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "dumbstore"
)

// Config represents dumbstore.json.
type Config struct {
	// Slot is the global slot name shared by the serializer and the client.
	Slot string `json:"slot,omitempty"`

	// Server contains listener configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Live contains the WebSocket live view configuration.
	Live LiveConfig `json:"live,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener configuration.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled"`
	Path      string `json:"path,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry configuration.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// LiveConfig contains the live view configuration.
type LiveConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Slot: store.DefaultSlot,
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultNamespace,
		},
		Live: LiveConfig{
			Enabled: true,
			Path:    DefaultLivePath,
		},
	}
}

// Load loads dumbstore.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path of the loaded config file, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Slot == "" {
		c.Slot = store.DefaultSlot
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Live.Path == "" {
		c.Live.Path = DefaultLivePath
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E142").
			WithDetail("server.port must be between 0 and 65535")
	}
	if strings.ContainsAny(c.Slot, "\"'\\<>\n") {
		return errors.New("E142").
			WithDetail("slot must not contain quotes, backslashes, angle brackets or newlines")
	}
	for name, path := range map[string]string{"metrics.path": c.Metrics.Path, "live.path": c.Live.Path} {
		if !strings.HasPrefix(path, "/") {
			return errors.New("E142").
				WithDetail(name + " must start with /")
		}
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
