package render

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one renderer is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// Factory creates a Renderer for the pool.
type Factory func() (Renderer, error)

// Pool manages Renderer instances for concurrent sessions. Each renderer owns
// its browser, so sessions render in parallel. Renderers are created lazily.
type Pool struct {
	size    int
	factory Factory

	mu        sync.Mutex
	renderers []Renderer
	idle      chan Renderer
	created   int
	closed    bool
}

// NewPool creates a pool with capacity for n renderers.
func NewPool(n int, factory Factory) *Pool {
	if n < MinPoolSize {
		n = MinPoolSize
	}
	return &Pool{
		size:      n,
		factory:   factory,
		renderers: make([]Renderer, 0, n),
		idle:      make(chan Renderer, n),
	}
}

// Acquire returns an idle renderer, creating one if capacity allows.
// Blocks until a renderer is released or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (Renderer, error) {
	select {
	case r, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock; factories may be slow.
		r, err := p.factory()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.renderers = append(p.renderers, r)
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	select {
	case r, ok := <-p.idle:
		if !ok {
			return nil, ErrPoolClosed
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a renderer to the pool. Renderers released after Close are
// closed instead.
func (p *Pool) Release(r Renderer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = r.Close()
		return
	}
	p.idle <- r
}

// Close releases all browser resources.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.idle)
	renderers := p.renderers
	p.mu.Unlock()

	var errs []error
	for _, r := range renderers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}

// ResolvePoolSize returns workers if positive, otherwise a size derived from
// GOMAXPROCS clamped to [MinPoolSize, MaxPoolSize].
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// PooledRenderer renders through a shared Pool. Close is a no-op; the pool
// owner closes the pool.
type PooledRenderer struct {
	pool *Pool
}

// NewPooledRenderer wraps pool as a Renderer.
func NewPooledRenderer(pool *Pool) *PooledRenderer {
	return &PooledRenderer{pool: pool}
}

// Render acquires a renderer, renders html and releases the renderer.
func (r *PooledRenderer) Render(ctx context.Context, html string) (Result, error) {
	inner, err := r.pool.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer r.pool.Release(inner)
	return inner.Render(ctx, html)
}

// Close does nothing.
func (r *PooledRenderer) Close() error { return nil }
