// Package config loads tally client configuration. Defaults are overlaid by
// an optional ~/.tally/config.yaml, then by TALLY_* environment variables;
// the environment always wins.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tallyhq/tally/pkg/logger"
)

// Transport selects how the initial counter value is fetched.
type Transport string

const (
	// TransportFetch loads the initial value over plain HTTP.
	TransportFetch Transport = "fetch"
	// TransportRPC loads the initial value via a typed call over the bridge.
	TransportRPC Transport = "rpc"
)

// DefaultServerURL is used when no server is configured.
const DefaultServerURL = "http://localhost:8080"

type Config struct {
	// ServerURL is the base URL of the tallyd server.
	ServerURL string
	// Transport selects the initial value source.
	Transport Transport
	// Bridge enables the socket.io push channel (clock ticks, control).
	Bridge bool
	// Reactive runs the program on the two-phase stream scheduler instead
	// of the plain mailbox loop.
	Reactive bool
	// LogLevel is the minimum logger level. Empty means info.
	LogLevel string

	// TallyHome is the directory where tally stores local state.
	TallyHome string
	// AccessKey is the path to the cached access token file.
	AccessKey string
}

// fileConfig is the subset of Config representable in config.yaml. Bool
// fields are pointers so an absent key does not clobber the default.
type fileConfig struct {
	ServerURL string `yaml:"server_url"`
	Transport string `yaml:"transport"`
	Bridge    *bool  `yaml:"bridge"`
	Reactive  *bool  `yaml:"reactive"`
	LogLevel  string `yaml:"log_level"`
}

// Load loads configuration from defaults, the config file, and environment.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	tallyHome := os.Getenv("TALLY_HOME_DIR")
	if tallyHome == "" {
		tallyHome = filepath.Join(homeDir, ".tally")
	}
	if err := os.MkdirAll(tallyHome, 0700); err != nil {
		return nil, fmt.Errorf("failed to create tally home: %w", err)
	}

	cfg := &Config{
		ServerURL: DefaultServerURL,
		Transport: TransportFetch,
		TallyHome: tallyHome,
		AccessKey: filepath.Join(tallyHome, "access.key"),
	}

	fc, err := loadFile(filepath.Join(tallyHome, "config.yaml"))
	if err != nil {
		return nil, err
	}
	if fc != nil {
		if fc.ServerURL != "" {
			cfg.ServerURL = fc.ServerURL
		}
		if fc.Transport != "" {
			cfg.Transport = Transport(strings.ToLower(fc.Transport))
		}
		if fc.Bridge != nil {
			cfg.Bridge = *fc.Bridge
		}
		if fc.Reactive != nil {
			cfg.Reactive = *fc.Reactive
		}
		if fc.LogLevel != "" {
			cfg.LogLevel = fc.LogLevel
		}
	}

	// Environment wins over the file.
	if v := os.Getenv("TALLY_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TALLY_TRANSPORT"); v != "" {
		cfg.Transport = Transport(strings.ToLower(v))
	}
	if v := os.Getenv("TALLY_BRIDGE"); v != "" {
		cfg.Bridge = v == "true" || v == "1"
	}
	if v := os.Getenv("TALLY_REACTIVE"); v != "" {
		cfg.Reactive = v == "true" || v == "1"
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.LogLevel == "" && (os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1") {
		cfg.LogLevel = "debug"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportFetch, TransportRPC:
	default:
		return fmt.Errorf("invalid transport %q (expected fetch or rpc)", c.Transport)
	}
	if c.Transport == TransportRPC && !c.Bridge {
		return fmt.Errorf("transport rpc requires the bridge; set bridge: true or TALLY_BRIDGE=1")
	}
	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// Save ensures the tally home directory exists.
func (c *Config) Save() error {
	return os.MkdirAll(c.TallyHome, 0700)
}

// loadFile reads and strictly parses a config.yaml. A missing file is not an
// error; unknown keys are, so typos fail loudly instead of being ignored.
func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fc, nil
}
