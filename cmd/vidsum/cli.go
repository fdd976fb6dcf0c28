package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/config"
	"github.com/alnah/go-vidsum/internal/hints"
)

// loadConfig builds the effective configuration for a command.
// Precedence: CLI flags > env vars > config file > defaults. Command
// specific flags are applied by the caller, which then validates.
func loadConfig(f *commonFlags, env *Environment) (*config.Config, error) {
	lookup, err := newEnvLookup(env, f.envFile)
	if err != nil {
		return nil, err
	}
	if !f.quiet {
		warnUnknownEnvVars(env.Stderr, lookup)
	}
	envCfg := loadEnvConfig(lookup)

	cfg := config.DefaultConfig()
	if name := firstNonEmpty(f.config, envCfg.ConfigPath); name != "" {
		cfg, err = config.LoadConfig(name)
		if err != nil {
			return nil, err
		}
	}
	applyEnvConfig(envCfg, cfg)

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	return cfg, nil
}

// applyTimeoutFlag parses a --timeout value into the service timeout.
func applyTimeoutFlag(value string, cfg *config.Config) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("%w: invalid --timeout %q", ErrUsage, value)
	}
	cfg.Service.Timeout = config.Duration(d)
	return nil
}

// newLogger builds the slog logger described by cfg. Quiet mode keeps
// errors only.
func newLogger(w io.Writer, cfg config.LogConfig, quiet bool) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if quiet {
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}

// pipelineConfig maps the file configuration onto the pipeline's.
func pipelineConfig(cfg *config.Config) vidsum.Config {
	return vidsum.Config{
		Endpoints: vidsum.Endpoints{
			FileURL: cfg.Service.FileEndpoint,
			LinkURL: cfg.Service.LinkEndpoint,
		},
		FileField:        cfg.Service.FileField,
		ServiceTimeout:   cfg.Service.Timeout.Std(),
		MaxResponseBytes: cfg.Service.MaxResponseBytes,
		RenderTimeout:    cfg.Render.Timeout.Std(),
		ArtifactBase:     cfg.Server.ArtifactBase,
		AssetPath:        cfg.Assets.BasePath,
		AlertTTL:         cfg.Alert.TTL.Std(),
	}
}

// reportedError marks an error whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// isSilent reports whether main should skip printing err.
func isSilent(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var te *vidsum.TransportError
	switch {
	case errors.Is(err, vidsum.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrMissingEndpoint):
		return hints.ForMissingEndpoint(missingEndpointVars(err.Error())...)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err.Error()))
	case errors.As(err, &te) && te.StatusCode != 0:
		return hints.ForServiceStatus(te.StatusCode)
	}
	return ""
}

// missingEndpointVars names the variables for the endpoints listed in msg.
func missingEndpointVars(msg string) []string {
	var vars []string
	if strings.Contains(msg, "service.fileEndpoint") {
		vars = append(vars, "VIDSUM_FILE_ENDPOINT")
	}
	if strings.Contains(msg, "service.linkEndpoint") {
		vars = append(vars, "VIDSUM_LINK_ENDPOINT")
	}
	return vars
}

// triedPaths extracts the searched locations from a config lookup error.
func triedPaths(msg string) []string {
	_, list, ok := strings.Cut(msg, "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}
