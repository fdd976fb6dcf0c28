package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type mockRenderer struct {
	id     int
	closed atomic.Bool
	err    error
}

func (m *mockRenderer) Render(ctx context.Context, html string) (Result, error) {
	if m.err != nil {
		return Result{}, m.err
	}
	return Result{PDF: []byte("%PDF-" + html), Pages: 1}, nil
}

func (m *mockRenderer) Close() error {
	m.closed.Store(true)
	return nil
}

func countingFactory() (Factory, *atomic.Int32) {
	var n atomic.Int32
	return func() (Renderer, error) {
		id := n.Add(1)
		return &mockRenderer{id: int(id)}, nil
	}, &n
}

func TestPool_LazyCreation(t *testing.T) {
	t.Parallel()

	factory, created := countingFactory()
	pool := NewPool(3, factory)
	defer pool.Close()

	if created.Load() != 0 {
		t.Fatalf("renderers created before first Acquire")
	}

	r, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	pool.Release(r)

	r2, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	pool.Release(r2)

	if created.Load() != 1 {
		t.Errorf("created = %d, want 1 (idle renderer reused)", created.Load())
	}
}

func TestPool_MinimumSize(t *testing.T) {
	t.Parallel()

	factory, _ := countingFactory()
	if got := NewPool(0, factory).Size(); got != MinPoolSize {
		t.Errorf("Size() = %d, want %d", got, MinPoolSize)
	}
}

func TestPool_AcquireBlocksUntilRelease(t *testing.T) {
	t.Parallel()

	factory, _ := countingFactory()
	pool := NewPool(1, factory)
	defer pool.Close()

	first, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan Renderer)
	go func() {
		r, _ := pool.Acquire(context.Background())
		got <- r
	}()

	select {
	case <-got:
		t.Fatal("Acquire returned while the only renderer was busy")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(first)
	select {
	case r := <-got:
		if r != first {
			t.Error("expected the released renderer")
		}
		pool.Release(r)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after Release")
	}
}

func TestPool_AcquireHonorsContext(t *testing.T) {
	t.Parallel()

	factory, _ := countingFactory()
	pool := NewPool(1, factory)
	defer pool.Close()

	r, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want DeadlineExceeded", err)
	}
}

func TestPool_FactoryError(t *testing.T) {
	t.Parallel()

	calls := 0
	pool := NewPool(1, func() (Renderer, error) {
		calls++
		if calls == 1 {
			return nil, ErrBrowserConnect
		}
		return &mockRenderer{}, nil
	})
	defer pool.Close()

	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrBrowserConnect) {
		t.Fatalf("error = %v, want ErrBrowserConnect", err)
	}
	// Failed creation must not consume capacity.
	r, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire error = %v", err)
	}
	pool.Release(r)
}

func TestPool_Close(t *testing.T) {
	t.Parallel()

	factory, _ := countingFactory()
	pool := NewPool(2, factory)

	a, _ := pool.Acquire(context.Background())
	b, _ := pool.Acquire(context.Background())
	pool.Release(a)

	if err := pool.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !a.(*mockRenderer).closed.Load() || !b.(*mockRenderer).closed.Load() {
		t.Error("all created renderers should be closed")
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Acquire after Close error = %v, want ErrPoolClosed", err)
	}

	// Releasing after close closes the renderer instead of blocking.
	pool.Release(b)
}

func TestPooledRenderer_Concurrent(t *testing.T) {
	t.Parallel()

	factory, created := countingFactory()
	pool := NewPool(2, factory)
	defer pool.Close()
	r := NewPooledRenderer(pool)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Render(context.Background(), "x")
			if err != nil || res.Pages != 1 {
				t.Errorf("Render() = %+v, %v", res, err)
			}
		}()
	}
	wg.Wait()

	if created.Load() > 2 {
		t.Errorf("created %d renderers, cap is 2", created.Load())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	if got := ResolvePoolSize(5); got != 5 {
		t.Errorf("ResolvePoolSize(5) = %d", got)
	}
	got := ResolvePoolSize(0)
	if got < MinPoolSize || got > MaxPoolSize {
		t.Errorf("ResolvePoolSize(0) = %d, out of range", got)
	}
}
