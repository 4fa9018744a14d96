package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/stream"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vpatch.json"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = ":8080"

	// DefaultWSPath is the default WebSocket endpoint path.
	DefaultWSPath = "/ws"

	// DefaultMetricsPath is the default Prometheus endpoint path.
	DefaultMetricsPath = "/metrics"

	// DefaultInterval is the default delay between pushed snapshots.
	DefaultInterval = Duration(time.Second)
)

var (
	// ErrNotFound is returned when the configuration file does not exist.
	ErrNotFound = errors.New("config: file not found")

	// ErrInvalid is returned when the configuration cannot be parsed or
	// fails validation.
	ErrInvalid = errors.New("config: invalid configuration")
)

// Duration is a time.Duration written as a string ("250ms", "2s") in JSON.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler. Bare numbers are nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return errors.Newf("duration must be a string or an integer, got %s", data)
		}
		*d = Duration(n)
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config represents the complete vpatch.json configuration.
type Config struct {
	Serve  ServeConfig  `json:"serve"`
	Stream StreamConfig `json:"stream"`
	Limits LimitsConfig `json:"limits"`
	Log    LogConfig    `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains settings of the serve command.
type ServeConfig struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty"`

	// WSPath is the path of the WebSocket endpoint.
	WSPath string `json:"wsPath,omitempty"`

	// MetricsPath is the path of the Prometheus endpoint. "-" disables it.
	MetricsPath string `json:"metricsPath,omitempty"`

	// Interval is the delay between two pushed snapshots.
	Interval Duration `json:"interval,omitempty"`

	// States is the YAML file holding the snapshots to push, relative to
	// the config file.
	States string `json:"states,omitempty"`

	// Loop restarts from the first snapshot after the last one.
	Loop bool `json:"loop"`
}

// StreamConfig contains WebSocket transport settings.
type StreamConfig struct {
	ReadBufferSize  int      `json:"readBufferSize,omitempty"`
	WriteBufferSize int      `json:"writeBufferSize,omitempty"`
	WriteTimeout    Duration `json:"writeTimeout,omitempty"`
	MaxMessageSize  int64    `json:"maxMessageSize,omitempty"`
}

// LimitsConfig bounds what a client decodes from the wire.
type LimitsConfig struct {
	MaxAllocation int `json:"maxAllocation,omitempty"`
	MaxCollection int `json:"maxCollection,omitempty"`
	MaxDepth      int `json:"maxDepth,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{Serve: ServeConfig{Loop: true}}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for vpatch.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "load %s", path), ErrNotFound)
		}
		return nil, errors.Wrapf(err, "load %s", path)
	}

	cfg := &Config{Serve: ServeConfig{Loop: true}}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parse %s", path), ErrInvalid)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.WSPath == "" {
		c.Serve.WSPath = DefaultWSPath
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = DefaultMetricsPath
	}
	if c.Serve.Interval == 0 {
		c.Serve.Interval = DefaultInterval
	}

	sd := stream.DefaultConfig()
	if c.Stream.ReadBufferSize == 0 {
		c.Stream.ReadBufferSize = sd.ReadBufferSize
	}
	if c.Stream.WriteBufferSize == 0 {
		c.Stream.WriteBufferSize = sd.WriteBufferSize
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = Duration(sd.WriteTimeout)
	}
	if c.Stream.MaxMessageSize == 0 {
		c.Stream.MaxMessageSize = sd.MaxMessageSize
	}

	ld := protocol.DefaultLimits()
	if c.Limits.MaxAllocation == 0 {
		c.Limits.MaxAllocation = ld.MaxAllocation
	}
	if c.Limits.MaxCollection == 0 {
		c.Limits.MaxCollection = ld.MaxCollection
	}
	if c.Limits.MaxDepth == 0 {
		c.Limits.MaxDepth = ld.MaxDepth
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Mark(errors.Newf(format, args...), ErrInvalid)
	}
	if !strings.HasPrefix(c.Serve.WSPath, "/") {
		return invalid("serve.wsPath %q must start with /", c.Serve.WSPath)
	}
	if c.Serve.MetricsPath != "-" && !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return invalid("serve.metricsPath %q must start with / or be -", c.Serve.MetricsPath)
	}
	if c.Serve.MetricsPath == c.Serve.WSPath {
		return invalid("serve.metricsPath and serve.wsPath are both %q", c.Serve.WSPath)
	}
	if c.Serve.Interval < 0 {
		return invalid("serve.interval must not be negative")
	}
	if c.Stream.ReadBufferSize < 0 || c.Stream.WriteBufferSize < 0 || c.Stream.MaxMessageSize < 0 {
		return invalid("stream sizes must not be negative")
	}
	if c.Stream.WriteTimeout < 0 {
		return invalid("stream.writeTimeout must not be negative")
	}
	if c.Limits.MaxAllocation < 0 || c.Limits.MaxAllocation > protocol.HardMaxAllocation {
		return invalid("limits.maxAllocation must be between 0 and %d", protocol.HardMaxAllocation)
	}
	if c.Limits.MaxCollection < 0 || c.Limits.MaxDepth < 0 {
		return invalid("limits must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// StatesPath returns the path of the states file, resolved against the
// config file directory.
func (c *Config) StatesPath() string {
	path := c.Serve.States
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// StreamConfig returns the transport settings for a stream handler.
func (c *Config) StreamConfig() stream.Config {
	sc := stream.DefaultConfig()
	sc.ReadBufferSize = c.Stream.ReadBufferSize
	sc.WriteBufferSize = c.Stream.WriteBufferSize
	sc.WriteTimeout = time.Duration(c.Stream.WriteTimeout)
	sc.MaxMessageSize = c.Stream.MaxMessageSize
	return sc
}

// DecodeLimits returns the decoder limits for a stream client.
func (c *Config) DecodeLimits() protocol.Limits {
	return protocol.Limits{
		MaxAllocation: c.Limits.MaxAllocation,
		MaxCollection: c.Limits.MaxCollection,
		MaxDepth:      c.Limits.MaxDepth,
	}
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, errors.Mark(errors.Newf("log.level %q must be debug, info, warn or error", level), ErrInvalid)
	}
	return l, nil
}
