// Package pipeline turns a summarization reply into one self-contained HTML
// document ready for printing.
//
// Stages:
//   - Markdown preprocessing (line normalization, highlight syntax)
//   - Markdown to HTML conversion via Goldmark
//   - Removal of elements that would fetch network resources (goquery)
//   - Wrapping into the fixed page template
//   - Sanitization for exports that leave the page (bluemonday)
//
// PDF generation is handled by package render. The document produced here
// never references external resources because the renderer runs offline.
package pipeline
