package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alnah/go-vidsum/internal/config"
	"github.com/alnah/go-vidsum/internal/fileutil"
)

// Legacy endpoint variables of the browser front end, still honored.
const (
	legacyUploadVar  = "VITE_N8N_UPLOAD_WEBHOOK"
	legacyYoutubeVar = "VITE_N8N_YOUTUBE_WEBHOOK"
)

// defaultEnvFile is read from the working directory when present.
const defaultEnvFile = ".env"

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath    string        // VIDSUM_CONFIG: config file name or path
	FileEndpoint  string        // VIDSUM_FILE_ENDPOINT, else VITE_N8N_UPLOAD_WEBHOOK
	LinkEndpoint  string        // VIDSUM_LINK_ENDPOINT, else VITE_N8N_YOUTUBE_WEBHOOK
	Timeout       time.Duration // VIDSUM_TIMEOUT: service request timeout
	RenderTimeout time.Duration // VIDSUM_RENDER_TIMEOUT
	Addr          string        // VIDSUM_ADDR: listen address
	LogLevel      string        // VIDSUM_LOG_LEVEL
	LogFormat     string        // VIDSUM_LOG_FORMAT
	Workers       int           // VIDSUM_WORKERS: browser pool size
	MaxSessions   int           // VIDSUM_MAX_SESSIONS
	AssetPath     string        // VIDSUM_ASSETS: custom template directory
}

// knownEnvVars lists valid VIDSUM_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"VIDSUM_CONFIG":         true,
	"VIDSUM_ENV_FILE":       true,
	"VIDSUM_FILE_ENDPOINT":  true,
	"VIDSUM_LINK_ENDPOINT":  true,
	"VIDSUM_TIMEOUT":        true,
	"VIDSUM_RENDER_TIMEOUT": true,
	"VIDSUM_ADDR":           true,
	"VIDSUM_LOG_LEVEL":      true,
	"VIDSUM_LOG_FORMAT":     true,
	"VIDSUM_WORKERS":        true,
	"VIDSUM_MAX_SESSIONS":   true,
	"VIDSUM_ASSETS":         true,
}

// envLookup resolves variables from the process first, then from a .env file.
type envLookup struct {
	getenv  func(string) string
	environ func() []string
	dotenv  map[string]string
}

// newEnvLookup reads the .env file named by VIDSUM_ENV_FILE, or ./.env when
// it exists. A missing default file is not an error; a missing explicit file is.
func newEnvLookup(env *Environment, explicitPath string) (*envLookup, error) {
	l := &envLookup{getenv: env.Getenv, environ: env.Environ, dotenv: map[string]string{}}

	path := explicitPath
	if path == "" {
		path = env.Getenv("VIDSUM_ENV_FILE")
	}
	if path == "" {
		if !fileutil.FileExists(defaultEnvFile) {
			return l, nil
		}
		path = defaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}
	l.dotenv = values
	return l, nil
}

// Get returns the value of name; the process environment wins over .env.
func (l *envLookup) Get(name string) string {
	if v := l.getenv(name); v != "" {
		return v
	}
	return l.dotenv[name]
}

// names returns every variable name visible through l.
func (l *envLookup) names() []string {
	seen := make(map[string]bool)
	for _, kv := range l.environ() {
		name, _, _ := strings.Cut(kv, "=")
		seen[name] = true
	}
	for name := range l.dotenv {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// loadEnvConfig reads configuration from environment variables.
// Invalid durations and counts are ignored.
func loadEnvConfig(l *envLookup) *envConfig {
	cfg := &envConfig{
		ConfigPath:   l.Get("VIDSUM_CONFIG"),
		FileEndpoint: firstNonEmpty(l.Get("VIDSUM_FILE_ENDPOINT"), l.Get(legacyUploadVar)),
		LinkEndpoint: firstNonEmpty(l.Get("VIDSUM_LINK_ENDPOINT"), l.Get(legacyYoutubeVar)),
		Addr:         l.Get("VIDSUM_ADDR"),
		LogLevel:     l.Get("VIDSUM_LOG_LEVEL"),
		LogFormat:    l.Get("VIDSUM_LOG_FORMAT"),
		AssetPath:    l.Get("VIDSUM_ASSETS"),
	}

	cfg.Timeout = parsePositiveDuration(l.Get("VIDSUM_TIMEOUT"))
	cfg.RenderTimeout = parsePositiveDuration(l.Get("VIDSUM_RENDER_TIMEOUT"))
	cfg.Workers = parsePositiveInt(l.Get("VIDSUM_WORKERS"))
	cfg.MaxSessions = parsePositiveInt(l.Get("VIDSUM_MAX_SESSIONS"))

	return cfg
}

// warnUnknownEnvVars writes a warning for unrecognized VIDSUM_* variables.
// Helps catch typos like VIDSUM_LINK_ENDPIONT.
func warnUnknownEnvVars(w io.Writer, l *envLookup) {
	for _, name := range l.names() {
		if strings.HasPrefix(name, "VIDSUM_") && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config file values with environment values.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.FileEndpoint != "" {
		cfg.Service.FileEndpoint = env.FileEndpoint
	}
	if env.LinkEndpoint != "" {
		cfg.Service.LinkEndpoint = env.LinkEndpoint
	}
	if env.Timeout > 0 {
		cfg.Service.Timeout = config.Duration(env.Timeout)
	}
	if env.RenderTimeout > 0 {
		cfg.Render.Timeout = config.Duration(env.RenderTimeout)
	}
	if env.Workers > 0 {
		cfg.Render.Workers = env.Workers
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.MaxSessions > 0 {
		cfg.Server.MaxSessions = env.MaxSessions
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}
}

func parsePositiveDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func parsePositiveInt(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
