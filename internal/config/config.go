// Package config loads vidsum settings from YAML files with defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-vidsum/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
	ErrMissingEndpoint = errors.New("summarization endpoint not configured")
)

// Field limits.
const (
	MaxURLLength   = 2048 // Browser limit
	MaxFieldLength = 64
	MaxPathLength  = 4096
	MaxSessions    = 100_000
)

// Defaults.
const (
	DefaultFileField        = "file"
	DefaultServiceTimeout   = 10 * time.Minute
	DefaultMaxResponseBytes = 16 << 20
	DefaultRenderTimeout    = 60 * time.Second
	DefaultAlertTTL         = 4 * time.Second
	DefaultAddr             = ":8080"
	DefaultMaxUploadBytes   = 512 << 20
	DefaultMaxSessions      = 128
	DefaultArtifactBase     = "/artifacts"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

// Duration is a time.Duration written as "30s" or "10m" in YAML.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Render  RenderConfig  `yaml:"render"`
	Alert   AlertConfig   `yaml:"alert"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Assets  AssetsConfig  `yaml:"assets"`
}

// ServiceConfig describes the remote summarization service.
type ServiceConfig struct {
	FileEndpoint     string   `yaml:"fileEndpoint"` // receives multipart uploads
	LinkEndpoint     string   `yaml:"linkEndpoint"` // receives {"youtubeUrl": ...}
	FileField        string   `yaml:"fileField"`
	Timeout          Duration `yaml:"timeout"`
	MaxResponseBytes int64    `yaml:"maxResponseBytes"`
}

// RenderConfig controls PDF rendering.
type RenderConfig struct {
	Timeout Duration `yaml:"timeout"`
	Workers int      `yaml:"workers"` // 0 = derived from CPU count
}

// AlertConfig controls user-facing alerts.
type AlertConfig struct {
	TTL Duration `yaml:"ttl"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	MaxSessions    int    `yaml:"maxSessions"`
	ArtifactBase   string `yaml:"artifactBase"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// DefaultConfig returns a configuration with every default filled in and no
// endpoints.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			FileField:        DefaultFileField,
			Timeout:          Duration(DefaultServiceTimeout),
			MaxResponseBytes: DefaultMaxResponseBytes,
		},
		Render: RenderConfig{Timeout: Duration(DefaultRenderTimeout)},
		Alert:  AlertConfig{TTL: Duration(DefaultAlertTTL)},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			MaxUploadBytes: DefaultMaxUploadBytes,
			MaxSessions:    DefaultMaxSessions,
			ArtifactBase:   DefaultArtifactBase,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// Validate checks ranges and formats. Endpoints are optional here; see
// RequireEndpoints.
func (c *Config) Validate() error {
	if err := validateEndpoint("service.fileEndpoint", c.Service.FileEndpoint); err != nil {
		return err
	}
	if err := validateEndpoint("service.linkEndpoint", c.Service.LinkEndpoint); err != nil {
		return err
	}
	if err := validateFieldLength("service.fileField", c.Service.FileField, MaxFieldLength); err != nil {
		return err
	}
	if strings.TrimSpace(c.Service.FileField) == "" {
		return fmt.Errorf("%w: service.fileField cannot be empty", ErrInvalidValue)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("%w: service.timeout must be positive", ErrInvalidValue)
	}
	if c.Service.MaxResponseBytes <= 0 {
		return fmt.Errorf("%w: service.maxResponseBytes must be positive", ErrInvalidValue)
	}

	if c.Render.Timeout <= 0 {
		return fmt.Errorf("%w: render.timeout must be positive", ErrInvalidValue)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("%w: render.workers must not be negative, got %d", ErrInvalidValue, c.Render.Workers)
	}

	if c.Alert.TTL <= 0 {
		return fmt.Errorf("%w: alert.ttl must be positive", ErrInvalidValue)
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxFieldLength); err != nil {
		return err
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: server.maxUploadBytes must be positive", ErrInvalidValue)
	}
	if c.Server.MaxSessions < 1 || c.Server.MaxSessions > MaxSessions {
		return fmt.Errorf("%w: server.maxSessions must be between 1 and %d, got %d", ErrInvalidValue, MaxSessions, c.Server.MaxSessions)
	}
	if !strings.HasPrefix(c.Server.ArtifactBase, "/") {
		return fmt.Errorf("%w: server.artifactBase must start with /, got %q", ErrInvalidValue, c.Server.ArtifactBase)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidValue, c.Log.Format)
	}

	return validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength)
}

// RequireEndpoints fails with ErrMissingEndpoint unless the requested
// endpoints are configured.
func (c *Config) RequireEndpoints(file, link bool) error {
	var missing []string
	if file && c.Service.FileEndpoint == "" {
		missing = append(missing, "service.fileEndpoint")
	}
	if link && c.Service.LinkEndpoint == "" {
		missing = append(missing, "service.linkEndpoint")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEndpoint, strings.Join(missing, ", "))
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalidValue, s)
	}
	return level, nil
}

func validateEndpoint(field, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(field, value, MaxURLLength); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", ErrInvalidValue, field, value)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name on top of
// DefaultConfig. If nameOrPath contains a path separator, it's treated as a
// file path. Otherwise, it's searched in standard locations. Returns error if
// the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.ReadFileStrict(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/vidsum/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "vidsum", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
