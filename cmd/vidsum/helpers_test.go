package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/render"
)

// fakePDF is returned by fakeRenderer; it is not parsed by anything.
var fakePDF = []byte("%PDF-1.7 fake")

type fakeRenderer struct {
	mu    sync.Mutex
	html  []string
	calls int
}

func (r *fakeRenderer) Render(_ context.Context, html string) (render.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.html = append(r.html, html)
	r.calls++
	return render.Result{PDF: fakePDF, Pages: 1}, nil
}

func (r *fakeRenderer) Close() error { return nil }

func (r *fakeRenderer) rendered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.html...)
}

type testEnv struct {
	*Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	renderer *fakeRenderer
	closed   int
}

// newTestEnv returns an Environment whose variables come only from vars.
func newTestEnv(t *testing.T, vars map[string]string) *testEnv {
	t.Helper()

	te := &testEnv{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		renderer: &fakeRenderer{},
	}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(name string) string { return vars[name] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			sort.Strings(out)
			return out
		},
		NewRenderer: func(time.Duration, int) (vidsum.Renderer, func() error, error) {
			return te.renderer, func() error { te.closed++; return nil }, nil
		},
		Context: context.Background(),
	}
	return te
}

// newSummaryService answers every request with status and body.
func newSummaryService(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}
