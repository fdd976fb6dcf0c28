package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/fileutil"
)

// defaultOutput is the PDF path when --output is not given.
const defaultOutput = "summary.pdf"

// Sentinel errors for the submit command.
var (
	ErrReadVideo   = errors.New("cannot read video file")
	ErrWriteOutput = errors.New("cannot write output")
)

// runSubmit sends one video to the service and writes the summary PDF.
func runSubmit(ctx context.Context, args []string, env *Environment) error {
	f, err := parseSubmitFlags(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := applyTimeoutFlag(f.timeout, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireEndpoints(f.fileMode, !f.fileMode); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg.Log, f.common.quiet)
	if err != nil {
		return err
	}

	req, err := buildRequest(f)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := env.NewRenderer(cfg.Render.Timeout.Std(), 1)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			logger.Warn("closing renderer", "error", err)
		}
	}()

	p, err := vidsum.NewPipeline(pipelineConfig(cfg),
		vidsum.WithRenderer(renderer),
		vidsum.WithLogger(logger),
		vidsum.WithClock(env.Now),
	)
	if err != nil {
		return err
	}
	defer p.Close()

	if !f.common.quiet {
		fmt.Fprintln(env.Stderr, "Summarizing, this can take several minutes...")
	}

	if err := p.Submit(ctx, req); err != nil {
		alert := p.State().AlertMessage
		if alert == "" {
			return err
		}
		fmt.Fprintln(env.Stderr, alert)
		if vidsum.Kind(err) == vidsum.KindValidation {
			return &reportedError{err: err}
		}
		return err
	}

	a, ok := p.Artifact()
	if !ok {
		return vidsum.ErrNoArtifact
	}
	if err := writeOutput(f.output, a.Bytes); err != nil {
		return err
	}

	if f.markdown != "" {
		md, err := p.Markdown()
		if err != nil {
			return err
		}
		if err := writeOutput(f.markdown, []byte(md)); err != nil {
			return err
		}
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Summary written to %s (%d pages)\n", f.output, a.Pages)
	}
	return nil
}

// buildRequest turns the flags into a submission. Blank input is left for
// the pipeline to reject with its prompt.
func buildRequest(f *submitFlags) (vidsum.SubmissionRequest, error) {
	if !f.fileMode {
		return vidsum.NewLinkSubmission(f.link), nil
	}
	if f.file == "" {
		return vidsum.NewFileSubmission("", nil), nil
	}
	content, err := os.ReadFile(f.file)
	if err != nil {
		return vidsum.SubmissionRequest{}, fmt.Errorf("%w: %w", ErrReadVideo, err)
	}
	return vidsum.NewFileSubmission(filepath.Base(f.file), content), nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, path, err)
	}
	return nil
}
