package main

import (
	"context"
	"io"
	"os"
	"time"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/render"
)

// RendererFactory builds the renderer used by commands.
type RendererFactory func(timeout time.Duration, workers int) (vidsum.Renderer, func() error, error)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	Getenv      func(string) string
	Environ     func() []string
	NewRenderer RendererFactory
	Context     context.Context
}

// DefaultEnv returns production environment backed by headless Chrome.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		Environ:     os.Environ,
		NewRenderer: newPooledRenderer,
	}
}

func (e *Environment) context() context.Context {
	if e.Context != nil {
		return e.Context
	}
	return context.Background()
}

// newPooledRenderer creates a pool of Chrome renderers shared by all
// sessions. The returned close function shuts the pool down.
func newPooledRenderer(timeout time.Duration, workers int) (vidsum.Renderer, func() error, error) {
	settings := render.DefaultSettings()
	if err := settings.Validate(); err != nil {
		return nil, nil, err
	}
	pool := render.NewPool(render.ResolvePoolSize(workers), func() (render.Renderer, error) {
		return render.NewRodRenderer(settings, timeout)
	})
	return render.NewPooledRenderer(pool), pool.Close, nil
}
