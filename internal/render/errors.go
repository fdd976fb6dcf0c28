package render

import "errors"

// Sentinel errors for rendering.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrInvalidPDF     = errors.New("rendered PDF is invalid")
	ErrPoolClosed     = errors.New("renderer pool is closed")

	// Settings validation errors.
	ErrInvalidMargin = errors.New("invalid margin")
	ErrInvalidScale  = errors.New("invalid scale")
)
