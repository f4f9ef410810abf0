package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger contains node logger configuration.
type Logger struct {
	LogEncoding  string `yaml:"LogEncoding"`
	LogLevel     string `yaml:"LogLevel"`
	LogPath      string `yaml:"LogPath"`
	LogTimestamp *bool  `yaml:"LogTimestamp,omitempty"`
}

// Validate returns an error if the Logger configuration is not valid.
func (l Logger) Validate() error {
	if len(l.LogEncoding) > 0 && l.LogEncoding != "console" && l.LogEncoding != "json" {
		return fmt.Errorf("invalid LogEncoding: %s", l.LogEncoding)
	}
	switch l.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LogLevel: %s", l.LogLevel)
	}
	return nil
}

// Build constructs a zap.Logger from the configuration: console or JSON
// encoding, the requested level (info if unset), writing to LogPath if
// given or stderr otherwise, with ISO8601 timestamps unless
// LogTimestamp explicitly disables them.
func (l Logger) Build() (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if l.LogLevel != "" {
		if err := level.Set(l.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid LogLevel: %w", err)
		}
	}

	encoding := l.LogEncoding
	if encoding == "" {
		encoding = "console"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if l.LogTimestamp != nil && !*l.LogTimestamp {
		encoderCfg.TimeKey = ""
	}

	outputPaths := []string{"stderr"}
	if l.LogPath != "" {
		if err := os.MkdirAll(parentDir(l.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		outputPaths = []string{l.LogPath}
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  []string{"stderr"},
	}
	return cfg.Build()
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}
