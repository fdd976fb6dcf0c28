// Package render prints a styled HTML document to PDF with headless Chrome.
//
// Layout is fixed by Settings (A4 portrait, 10 mm margins, 2x device scale by
// default). Pagination is left to Chrome's print engine. Rendered bytes are
// checked with pdfcpu, which also reports the page count.
//
// Rod downloads a managed Chromium on first run (~/.cache/rod/browser/). Set
// ROD_BROWSER_BIN to use an installed browser and ROD_NO_SANDBOX=1 in
// containers.
package render
