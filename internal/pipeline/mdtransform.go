package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Highlight placeholders use Private Use Area characters so they pass through
// Goldmark untouched and are turned into <mark> afterwards.
const (
	MarkStartPlaceholder = "\uE000"
	MarkEndPlaceholder   = "\uE001"
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==(\S(?:.*?\S)?)==`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// SummaryPreprocessor cleans service-generated Markdown before conversion.
type SummaryPreprocessor struct{}

// PreprocessMarkdown normalizes line endings, converts ==highlight== syntax
// to placeholders and compresses runs of blank lines.
func (p *SummaryPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = crlfOrCR.ReplaceAllString(content, "\n")
	content = highlightOutsideCode(content)
	content = multipleBlankLines.ReplaceAllString(content, "\n\n")
	return content
}

// highlightOutsideCode applies the highlight syntax everywhere except fenced
// code blocks and inline code spans, which keep their text literally.
func highlightOutsideCode(content string) string {
	lines := strings.Split(content, "\n")
	var fence string
	for i, line := range lines {
		if fence != "" {
			if closesFence(line, fence) {
				fence = ""
			}
			continue
		}
		if f := openingFence(line); f != "" {
			fence = f
			continue
		}
		lines[i] = highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

// openingFence returns the fence marker run (``` or ~~~, three or more) that
// opens a code block on line, or "" when line opens none.
func openingFence(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || len(trimmed) < 3 {
		return ""
	}
	c := trimmed[0]
	if c != '`' && c != '~' {
		return ""
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 || (c == '`' && strings.ContainsRune(trimmed[n:], '`')) {
		return ""
	}
	return trimmed[:n]
}

func closesFence(line, fence string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == fence[0] {
		n++
	}
	return n >= len(fence) && strings.TrimSpace(trimmed[n:]) == ""
}

// highlightLine replaces ==text== outside the line's code spans. A span opens
// with a run of backticks and closes at the next run of the same length; an
// unmatched run is literal text.
func highlightLine(line string) string {
	var b strings.Builder
	rest := line
	for {
		start := strings.IndexByte(rest, '`')
		if start < 0 {
			b.WriteString(highlight(rest))
			return b.String()
		}
		run := backtickRun(rest[start:])
		end := closingRun(rest[start+run:], run)
		if end < 0 {
			b.WriteString(highlight(rest[:start+run]))
			rest = rest[start+run:]
			continue
		}
		b.WriteString(highlight(rest[:start]))
		spanEnd := start + run + end + run
		b.WriteString(rest[start:spanEnd])
		rest = rest[spanEnd:]
	}
}

func highlight(s string) string {
	return highlightPattern.ReplaceAllString(s, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// closingRun returns the offset in s of the first backtick run exactly n long,
// or -1.
func closingRun(s string, n int) int {
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		run := backtickRun(s[i:])
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

// ConvertMarkPlaceholders turns highlight placeholders into <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
