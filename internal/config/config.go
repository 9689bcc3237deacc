package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-cvgen/internal/fileutil"
	"github.com/alnah/go-cvgen/internal/logger"
	"github.com/alnah/go-cvgen/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Limits.
const (
	MaxPathLength  = 4096 // PATH_MAX on Linux
	MaxWorkers     = 64
	MaxUploadLimit = 100 << 20
)

// Watch policies accepted in watch.policy.
const (
	WatchPolicyStop     = "stop"
	WatchPolicyContinue = "continue"
)

// Config holds all configuration for the CLI and the HTTP server.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Compiler CompilerConfig `yaml:"compiler"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Watch    WatchConfig    `yaml:"watch"`
}

// PathsConfig locates person data, rendered output and templates.
type PathsConfig struct {
	Data      string `yaml:"data"`      // Root holding one directory per person
	Output    string `yaml:"output"`    // Root receiving rendered PDFs
	Templates string `yaml:"templates"` // Root holding cv*.typ and template.typ
	Workspace string `yaml:"workspace"` // Parent of job workspaces (empty = os.TempDir)
}

// CompilerConfig selects the typst binary.
type CompilerConfig struct {
	Binary  string `yaml:"binary"`  // Name on PATH or absolute path
	Timeout string `yaml:"timeout"` // Go duration, e.g. "60s"
}

// ServerConfig defines the HTTP surface.
type ServerConfig struct {
	Port            int    `yaml:"port"`
	ShutdownTimeout string `yaml:"shutdownTimeout"`
	Workers         int    `yaml:"workers"`        // 0 = derived from GOMAXPROCS
	MaxUploadBytes  int64  `yaml:"maxUploadBytes"` // Profile picture cap
}

// LogConfig selects zap level and encoder.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Policy   string `yaml:"policy"`   // stop, continue
	Debounce string `yaml:"debounce"` // Go duration
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Data:      "data",
			Output:    "out",
			Templates: "templates",
		},
		Compiler: CompilerConfig{
			Binary:  "typst",
			Timeout: "60s",
		},
		Server: ServerConfig{
			Port:            4002,
			ShutdownTimeout: "10s",
			MaxUploadBytes:  10 << 20,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
		Watch: WatchConfig{
			Policy:   WatchPolicyStop,
			Debounce: "300ms",
		},
	}
}

// Validate checks value ranges and formats.
// Called automatically by LoadConfig, but available for callers that
// assemble a Config from flags and environment.
func (c *Config) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"paths.data", c.Paths.Data},
		{"paths.output", c.Paths.Output},
		{"paths.templates", c.Paths.Templates},
		{"paths.workspace", c.Paths.Workspace},
		{"compiler.binary", c.Compiler.Binary},
	} {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}
	if c.Compiler.Binary == "" {
		return fmt.Errorf("%w: compiler.binary is required", ErrInvalidValue)
	}

	if err := validateDuration("compiler.timeout", c.Compiler.Timeout); err != nil {
		return err
	}
	if err := validateDuration("server.shutdownTimeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if err := validateDuration("watch.debounce", c.Watch.Debounce); err != nil {
		return err
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port must be between 1 and 65535, got %d", ErrInvalidValue, c.Server.Port)
	}
	if c.Server.Workers < 0 || c.Server.Workers > MaxWorkers {
		return fmt.Errorf("%w: server.workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Server.Workers)
	}
	if c.Server.MaxUploadBytes <= 0 || c.Server.MaxUploadBytes > MaxUploadLimit {
		return fmt.Errorf("%w: server.maxUploadBytes must be between 1 and %d, got %d", ErrInvalidValue, MaxUploadLimit, c.Server.MaxUploadBytes)
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidValue, err)
	}
	if err := logger.ValidateFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: log.format: %v", ErrInvalidValue, err)
	}

	switch strings.ToLower(c.Watch.Policy) {
	case "", WatchPolicyStop, WatchPolicyContinue:
	default:
		return fmt.Errorf("%w: watch.policy: %q (must be stop or continue)", ErrInvalidValue, c.Watch.Policy)
	}

	return nil
}

// CompilerTimeout returns compiler.timeout, or 60s when unset.
func (c *Config) CompilerTimeout() time.Duration {
	return durationOr(c.Compiler.Timeout, 60*time.Second)
}

// ShutdownTimeout returns server.shutdownTimeout, or 10s when unset.
func (c *Config) ShutdownTimeout() time.Duration {
	return durationOr(c.Server.ShutdownTimeout, 10*time.Second)
}

// WatchDebounce returns watch.debounce, or 300ms when unset.
func (c *Config) WatchDebounce() time.Duration {
	return durationOr(c.Watch.Debounce, 300*time.Millisecond)
}

// ContinueOnError reports whether watch.policy is "continue".
func (c *Config) ContinueOnError() bool {
	return strings.EqualFold(c.Watch.Policy, WatchPolicyContinue)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDuration accepts empty (default applies) or a positive Go duration.
func validateDuration(fieldName, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, fieldName, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, fieldName, value)
	}
	return nil
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-cvgen/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-cvgen", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
