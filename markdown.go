package vidsum

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/alnah/go-vidsum/internal/pipeline"
)

var markdownConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

var markdownSanitizer = pipeline.NewSanitizer()

// Markdown returns the latest summary as Markdown. A Markdown reply is
// returned as received; an HTML reply is sanitized and converted.
func (p *Pipeline) Markdown() (string, error) {
	p.mu.Lock()
	s, published := p.summary, p.current != nil
	p.mu.Unlock()

	switch s.source {
	case pipeline.SourceMarkdown:
		return s.markdown, nil
	case pipeline.SourceHTML:
		md, err := markdownConverter.ConvertString(markdownSanitizer.Sanitize(s.body))
		if err != nil {
			return "", fmt.Errorf("converting summary to markdown: %w", err)
		}
		return md, nil
	}
	if published {
		return "", nil
	}
	return "", ErrNoSummary
}
