package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// UserAgentWrapper is a string that the user agent string should be
	// wrapped into.
	UserAgentWrapper = "/"
	// UserAgentPrefix is a prefix used to generate the user agent string.
	UserAgentPrefix = "neond:"
	// UserAgentFormat is a formatted string used to generate the user agent
	// string reported in a Version message.
	UserAgentFormat = UserAgentWrapper + UserAgentPrefix + "%s" + UserAgentWrapper
)

// Version is the version of the node, set at build time via -ldflags.
var Version string

// Config is the top-level configuration for a node: networking settings
// plus the ambient logger and metrics settings. It is unmarshaled from
// YAML by Load.
type Config struct {
	// DataDir is the directory the bbolt-backed block index and
	// peer-book blob are stored under.
	DataDir string  `yaml:"DataDir"`
	P2P     P2P     `yaml:"P2P"`
	Logger  Logger  `yaml:"Logger"`
	Metrics Metrics `yaml:"Metrics"`
}

// Metrics controls whether the node exposes Prometheus metrics over
// HTTP and, if so, on which address.
type Metrics struct {
	Enabled bool   `yaml:"Enabled"`
	Address string `yaml:"Address"`
}

// GenerateUserAgent creates a user agent string based on the build-time
// version.
func (c Config) GenerateUserAgent() string {
	return fmt.Sprintf(UserAgentFormat, Version)
}

// Default returns a Config populated with the node's default settings,
// suitable as a starting point before a config file is applied on top.
func Default() Config {
	return Config{
		DataDir: "./neond-data",
		Metrics: Metrics{
			Enabled: true,
			Address: ":2112",
		},
		P2P: P2P{
			ListenAddress:       ":3000",
			MaxPeers:            50,
			MinPeers:            4,
			ConnectionFrequency: 60 * time.Second,
			DialTimeout:         5 * time.Second,
			HandshakeTimeout:    10 * time.Second,
			PingInterval:        30 * time.Second,
			PingTimeout:         90 * time.Second,
			MempoolInterval:     10 * time.Second,
			MaxFailures:         5,
		},
		Logger: Logger{
			LogEncoding: "console",
			LogLevel:    "info",
		},
	}
}

// Load reads and validates the config file at the given path, applying it
// on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if err := cfg.Logger.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.P2P.MaxPeers <= 0 {
		return Config{}, fmt.Errorf("invalid P2P.MaxPeers: %d", cfg.P2P.MaxPeers)
	}
	return cfg, nil
}
