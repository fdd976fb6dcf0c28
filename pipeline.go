package vidsum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-vidsum/internal/artifact"
	"github.com/alnah/go-vidsum/internal/assets"
	"github.com/alnah/go-vidsum/internal/dispatch"
	"github.com/alnah/go-vidsum/internal/pipeline"
	"github.com/alnah/go-vidsum/internal/render"
)

// Config holds the settings used to build the default stages. Stages
// injected through options ignore the matching fields.
type Config struct {
	Endpoints        Endpoints
	FileField        string        // multipart field name, default "file"
	ServiceTimeout   time.Duration // per-request timeout, default 10m
	MaxResponseBytes int64         // default 16 MiB
	RenderTimeout    time.Duration // default 60s
	ArtifactBase     string        // URI prefix, default "/artifacts"
	AssetPath        string        // custom template/style directory, empty = embedded
	AlertTTL         time.Duration // default 4s
}

// Pipeline drives submissions for one UI session and owns its UiState.
// Safe for concurrent use; at most one submission runs at a time.
type Pipeline struct {
	dispatcher Dispatcher
	normalizer Normalizer
	renderer   Renderer
	artifacts  ArtifactStore
	logger     *slog.Logger
	now        func() time.Time
	alertTTL   time.Duration
	alert      *Alert

	mu      sync.Mutex
	loading bool
	closed  bool
	done    chan struct{}
	current *RenderedArtifact
	summary summary
	subs    map[uint64]chan UiState
	nextSub uint64
}

// summary is the content of the latest successful submission.
type summary struct {
	source   pipeline.Source
	markdown string
	body     string
}

// NewPipeline creates a Pipeline. Stages not injected through options are
// built from cfg; the default renderer launches Chrome lazily on first use.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		alertTTL: DefaultAlertTTL,
		subs:     make(map[uint64]chan UiState),
		done:     make(chan struct{}),
	}
	if cfg.AlertTTL > 0 {
		p.alertTTL = cfg.AlertTTL
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.dispatcher == nil {
		p.dispatcher = dispatch.New(cfg.Endpoints,
			dispatch.WithTimeout(cfg.ServiceTimeout),
			dispatch.WithFileField(cfg.FileField),
			dispatch.WithMaxResponseBytes(cfg.MaxResponseBytes),
			dispatch.WithLogger(p.logger),
		)
	}

	if p.normalizer == nil {
		n, err := newNormalizer(cfg.AssetPath, p.logger)
		if err != nil {
			return nil, err
		}
		p.normalizer = n
	}

	if p.artifacts == nil {
		m, err := artifact.NewManager(artifact.WithBase(cfg.ArtifactBase), artifact.WithClock(p.now))
		if err != nil {
			return nil, err
		}
		p.artifacts = m
	}

	if p.renderer == nil {
		r, err := render.NewRodRenderer(render.DefaultSettings(), cfg.RenderTimeout)
		if err != nil {
			return nil, err
		}
		p.renderer = r
	}

	p.alert = NewAlert(p.alertTTL, p.now, p.broadcast)
	return p, nil
}

// newNormalizer loads the summary template from assetPath, falling back to
// the embedded one for anything the directory does not provide.
func newNormalizer(assetPath string, logger *slog.Logger) (*pipeline.Normalizer, error) {
	var loader assets.AssetLoader = assets.NewEmbeddedLoader()
	if assetPath != "" {
		resolver, err := assets.NewAssetResolver(assetPath)
		if err != nil {
			return nil, fmt.Errorf("loading assets: %w", err)
		}
		loader = resolver
	}
	tmpl, err := assets.LoadPageTemplate(loader, assets.DefaultName)
	if err != nil {
		return nil, fmt.Errorf("loading summary template: %w", err)
	}
	return pipeline.NewNormalizer(tmpl, pipeline.WithNormalizerLogger(logger)), nil
}

// Submit runs one submission through every stage.
//
// Invalid input sets the matching prompt as alert and never reaches the
// network. While a submission is in flight further calls return ErrBusy.
// Any stage failure leaves the previous artifact in place and sets the
// failure alert. Loading is cleared on every exit path, panics included.
func (p *Pipeline) Submit(ctx context.Context, req SubmissionRequest) (err error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.loading:
		p.mu.Unlock()
		return ErrBusy
	}

	if verr := req.Validate(); verr != nil {
		p.mu.Unlock()
		p.fail(req, verr)
		return verr
	}

	p.loading = true
	p.broadcastLocked()
	p.mu.Unlock()

	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
		if err != nil {
			p.fail(req, err)
		}

		p.mu.Lock()
		p.loading = false
		p.broadcastLocked()
		p.mu.Unlock()
	}()

	if err := p.run(ctx, req); err != nil {
		return err
	}

	p.logger.Info("submission completed",
		"mode", req.Mode.String(),
		"duration", p.now().Sub(start),
	)
	return nil
}

// run executes the stages in order and publishes the result.
func (p *Pipeline) run(ctx context.Context, req SubmissionRequest) error {
	resp, err := p.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return err
	}

	doc, err := p.normalizer.Normalize(ctx, resp.MarkupHTML, resp.MarkupSource)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNormalize, err)
	}

	res, err := p.renderer.Render(ctx, doc.StyledHTML)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}

	published, err := p.artifacts.Publish(res.PDF)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.artifacts.Release()
		return ErrClosed
	}
	p.current = &RenderedArtifact{
		Bytes:     published.Bytes,
		Handle:    published.URI,
		Pages:     res.Pages,
		CreatedAt: published.CreatedAt,
	}
	p.summary = summary{source: doc.Source, markdown: resp.MarkupSource, body: doc.Body}
	return nil
}

// fail logs err by kind and raises the matching alert.
func (p *Pipeline) fail(req SubmissionRequest, err error) {
	kind := Kind(err)
	attrs := []any{"kind", string(kind), "mode", req.Mode.String(), "error", err}

	switch kind {
	case KindValidation:
		p.logger.Debug("submission rejected", attrs...)
	case KindCanceled:
		p.logger.Warn("submission canceled", attrs...)
	default:
		var terr *TransportError
		if errors.As(err, &terr) && terr.StatusCode != 0 {
			attrs = append(attrs, "status", terr.StatusCode)
		}
		p.logger.Error("submission failed", attrs...)
	}

	p.alert.Set(AlertFor(err))
	p.broadcast()
}

// State returns the current UiState.
func (p *Pipeline) State() UiState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Pipeline) stateLocked() UiState {
	s := UiState{Loading: p.loading, AlertMessage: p.alert.Current()}
	if p.current != nil {
		s.ArtifactURI = p.current.Handle
	}
	return s
}

// Artifact returns the latest published document.
func (p *Pipeline) Artifact() (RenderedArtifact, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return RenderedArtifact{}, false
	}
	a := *p.current
	a.Bytes = append([]byte(nil), a.Bytes...)
	return a, true
}

// Resolve returns the bytes behind a handle handed out by this pipeline.
func (p *Pipeline) Resolve(handle string) ([]byte, error) {
	type resolver interface {
		Resolve(handle string) (artifact.Artifact, error)
	}
	if r, ok := p.artifacts.(resolver); ok {
		a, err := r.Resolve(handle)
		if err != nil {
			return nil, err
		}
		return a.Bytes, nil
	}

	a, ok := p.artifacts.Current()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandleNotFound, handle)
	}
	if a.URI != handle && a.ID != handle {
		return nil, fmt.Errorf("%w: %s", ErrHandleNotFound, handle)
	}
	return a.Bytes, nil
}

// Subscribe streams UiState snapshots until ctx is done or the pipeline is
// closed. The current state is delivered first. A slow reader only ever sees
// the latest snapshot.
func (p *Pipeline) Subscribe(ctx context.Context) <-chan UiState {
	ch := make(chan UiState, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.stateLocked()
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-p.done:
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}()
	return ch
}

func (p *Pipeline) broadcast() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcastLocked()
}

// broadcastLocked pushes the current state to every subscriber, replacing any
// snapshot still waiting in the buffer.
func (p *Pipeline) broadcastLocked() {
	if len(p.subs) == 0 {
		return
	}
	s := p.stateLocked()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// Reset releases the current artifact and clears summary and alert.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.artifacts.Release()
	p.current = nil
	p.summary = summary{}
	p.mu.Unlock()

	p.alert.Clear()
	p.broadcast()
}

// Close releases the current artifact and the renderer and ends all
// subscriptions. A submission still in flight finishes on its own.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	p.artifacts.Release()
	p.current = nil
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	p.mu.Unlock()

	p.alert.Clear()
	return p.renderer.Close()
}
