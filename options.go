package vidsum

import (
	"context"
	"log/slog"
	"time"

	"github.com/alnah/go-vidsum/internal/artifact"
	"github.com/alnah/go-vidsum/internal/dispatch"
	"github.com/alnah/go-vidsum/internal/pipeline"
	"github.com/alnah/go-vidsum/internal/render"
)

// Dispatcher sends a submission to the summarization service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (dispatch.Response, error)
}

// Normalizer turns a service reply into a styled document.
type Normalizer interface {
	Normalize(ctx context.Context, markupHTML, markupSource string) (pipeline.Document, error)
}

// Renderer turns a styled document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) (render.Result, error)
	Close() error
}

// ArtifactStore keeps the single live document of a session.
type ArtifactStore interface {
	Publish(data []byte) (artifact.Artifact, error)
	Current() (artifact.Artifact, bool)
	Release()
}

// Compile-time interface implementation checks.
var (
	_ Dispatcher    = (*dispatch.Dispatcher)(nil)
	_ Normalizer    = (*pipeline.Normalizer)(nil)
	_ Renderer      = (*render.RodRenderer)(nil)
	_ Renderer      = (*render.PooledRenderer)(nil)
	_ ArtifactStore = (*artifact.Manager)(nil)
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDispatcher replaces the HTTP dispatcher built from Config.
func WithDispatcher(d Dispatcher) Option {
	return func(p *Pipeline) { p.dispatcher = d }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) { p.normalizer = n }
}

// WithRenderer replaces the default headless Chrome renderer. The pipeline
// closes it on Close; pass a render.PooledRenderer to share browsers.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// WithArtifacts replaces the default artifact manager.
func WithArtifacts(a ArtifactStore) Option {
	return func(p *Pipeline) { p.artifacts = a }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the time source used for alerts and artifacts.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithAlertTTL sets how long alerts stay visible.
func WithAlertTTL(ttl time.Duration) Option {
	return func(p *Pipeline) {
		if ttl > 0 {
			p.alertTTL = ttl
		}
	}
}
