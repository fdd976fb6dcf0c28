package assets

import (
	"errors"
	"fmt"
	"strings"
)

// Template markers replaced when a page template is compiled.
const (
	StyleMarker = "{{style}}"
	BodyMarker  = "{{body}}"
)

// AssetResolver combines custom and embedded loaders. Custom assets take
// precedence; only "not found" errors fall back to the embedded copy.
type AssetResolver struct {
	custom   AssetLoader // nil if no custom path configured
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver. An empty customBasePath uses
// embedded assets only.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStyle loads a CSS style, custom first.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	return r.loadWithFallback(func(l AssetLoader) (string, error) { return l.LoadStyle(name) })
}

// LoadTemplate loads an HTML template, custom first.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return r.loadWithFallback(func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

func (r *AssetResolver) loadWithFallback(loadFn func(AssetLoader) (string, error)) (string, error) {
	if r.custom == nil {
		return loadFn(r.embedded)
	}

	content, err := loadFn(r.custom)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrStyleNotFound) && !errors.Is(err, ErrTemplateNotFound) {
		return "", err
	}
	return loadFn(r.embedded)
}

// HasCustomLoader returns true if a custom asset loader is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

var _ AssetLoader = (*AssetResolver)(nil)

// PageTemplate is a compiled page template: everything before and after the
// body marker, with the style already inlined.
type PageTemplate struct {
	head string
	tail string
}

// LoadPageTemplate loads the named style and template and compiles them.
func LoadPageTemplate(loader AssetLoader, name string) (*PageTemplate, error) {
	css, err := loader.LoadStyle(name)
	if err != nil {
		return nil, fmt.Errorf("loading style %q: %w", name, err)
	}
	tmpl, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("loading template %q: %w", name, err)
	}
	return CompilePageTemplate(tmpl, css)
}

// CompilePageTemplate inlines css into tmpl and splits it at the body marker.
// Each marker must appear exactly once.
func CompilePageTemplate(tmpl, css string) (*PageTemplate, error) {
	if n := strings.Count(tmpl, StyleMarker); n != 1 {
		return nil, fmt.Errorf("%w: %d %s markers", ErrInvalidTemplate, n, StyleMarker)
	}
	if n := strings.Count(tmpl, BodyMarker); n != 1 {
		return nil, fmt.Errorf("%w: %d %s markers", ErrInvalidTemplate, n, BodyMarker)
	}

	// Escape closing sequences so the stylesheet cannot end the <style> block.
	css = strings.ReplaceAll(css, "</", `<\/`)

	head, tail, _ := strings.Cut(tmpl, BodyMarker)
	head = strings.Replace(head, StyleMarker, css, 1)
	tail = strings.Replace(tail, StyleMarker, css, 1)
	return &PageTemplate{head: head, tail: tail}, nil
}

// Wrap places body inside the template.
func (t *PageTemplate) Wrap(body string) string {
	var b strings.Builder
	b.Grow(len(t.head) + len(body) + len(t.tail))
	b.WriteString(t.head)
	b.WriteString(body)
	b.WriteString(t.tail)
	return b.String()
}
