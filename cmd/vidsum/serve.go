package main

import (
	"context"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/server"
)

// runServe starts the HTTP front end until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, err := parseServeFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.workers > 0 {
		cfg.Render.Workers = f.workers
	}
	if f.maxSessions > 0 {
		cfg.Server.MaxSessions = f.maxSessions
	}
	if err := applyTimeoutFlag(f.timeout, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireEndpoints(true, true); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg.Log, f.common.quiet)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := env.NewRenderer(cfg.Render.Timeout.Std(), cfg.Render.Workers)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			logger.Warn("closing renderer", "error", err)
		}
	}()

	pcfg := pipelineConfig(cfg)
	srv, err := server.New(func() (*vidsum.Pipeline, error) {
		return vidsum.NewPipeline(pcfg,
			vidsum.WithRenderer(renderer),
			vidsum.WithLogger(logger),
			vidsum.WithClock(env.Now),
		)
	},
		server.WithLogger(logger),
		server.WithMaxSessions(cfg.Server.MaxSessions),
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithArtifactBase(cfg.Server.ArtifactBase),
		server.WithSubmitTimeout(cfg.Service.Timeout.Std()+cfg.Render.Timeout.Std()),
	)
	if err != nil {
		return err
	}
	defer srv.Close()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
