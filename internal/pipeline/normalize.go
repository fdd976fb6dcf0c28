package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/go-vidsum/internal/assets"
)

// ErrNormalize wraps failures while building the styled document.
var ErrNormalize = errors.New("content normalization failed")

// Source tells which reply field produced the document body.
type Source int

const (
	SourceEmpty Source = iota
	SourceHTML
	SourceMarkdown
)

func (s Source) String() string {
	switch s {
	case SourceHTML:
		return "html"
	case SourceMarkdown:
		return "markdown"
	default:
		return "empty"
	}
}

// Document is a normalized, self-contained HTML document.
// Never mutated after creation.
type Document struct {
	Source     Source
	Body       string // content placed inside <body>
	StyledHTML string // complete document: head, style block, body
}

// Normalizer produces exactly one Document per reply, whichever field the
// service filled in.
type Normalizer struct {
	preprocessor MarkdownPreprocessor
	converter    HTMLConverter
	template     *assets.PageTemplate
	logger       *slog.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithHTMLConverter replaces the Markdown converter.
func WithHTMLConverter(c HTMLConverter) NormalizerOption {
	return func(n *Normalizer) { n.converter = c }
}

// WithPreprocessor replaces the Markdown preprocessor.
func WithPreprocessor(p MarkdownPreprocessor) NormalizerOption {
	return func(n *Normalizer) { n.preprocessor = p }
}

// WithNormalizerLogger sets the logger.
func WithNormalizerLogger(l *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// NewNormalizer creates a Normalizer that wraps bodies in tmpl.
func NewNormalizer(tmpl *assets.PageTemplate, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		preprocessor: &SummaryPreprocessor{},
		converter:    NewGoldmarkConverter(),
		template:     tmpl,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewDefaultNormalizer creates a Normalizer using the embedded summary template.
func NewDefaultNormalizer(opts ...NormalizerOption) (*Normalizer, error) {
	tmpl, err := assets.LoadPageTemplate(assets.NewEmbeddedLoader(), assets.DefaultName)
	if err != nil {
		return nil, err
	}
	return NewNormalizer(tmpl, opts...), nil
}

// Normalize builds the styled document.
//
// A non-blank markupHTML wins and is used as the body verbatim; markupSource
// is then ignored. Otherwise markupSource is converted from Markdown, raw
// HTML included. When both are empty the body is empty, which is not an
// error. Either way, elements that would reach the network are removed; the
// renderer runs with scripts disabled.
func (n *Normalizer) Normalize(ctx context.Context, markupHTML, markupSource string) (Document, error) {
	var (
		body   string
		source Source
	)

	switch {
	case strings.TrimSpace(markupHTML) != "":
		source = SourceHTML
		body = markupHTML

	case strings.TrimSpace(markupSource) != "":
		source = SourceMarkdown
		md := n.preprocessor.PreprocessMarkdown(ctx, markupSource)
		converted, err := n.converter.ToHTML(ctx, md)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %w", ErrNormalize, err)
		}
		body = ConvertMarkPlaceholders(converted)

	default:
		n.logger.Warn("service reply has neither html nor markdown; producing empty document")
	}

	body, removed, err := StripRemoteResources(body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrNormalize, err)
	}
	if removed > 0 {
		n.logger.Info("removed network references from summary", "count", removed, "source", source.String())
	}

	return Document{
		Source:     source,
		Body:       body,
		StyledHTML: n.template.Wrap(body),
	}, nil
}
