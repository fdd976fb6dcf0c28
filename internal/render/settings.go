package render

import "fmt"

// Summaries are printed on A4 portrait.
const (
	PaperWidthMM  = 210.0
	PaperHeightMM = 297.0
)

// Fixed layout of summary documents.
const (
	DefaultMarginMM = 10.0
	DefaultScale    = 2.0
	MaxScale        = 4.0
	MaxMarginMM     = 50.0
)

const (
	mmPerInch    = 25.4
	cssPxPerInch = 96.0
)

// Settings controls margins and rasterization of the A4 page.
type Settings struct {
	MarginMM float64 // applied to all four sides
	Scale    float64 // device scale factor used while laying out the page
}

// DefaultSettings returns the summary layout: 10 mm margins, 2x scale.
func DefaultSettings() Settings {
	return Settings{
		MarginMM: DefaultMarginMM,
		Scale:    DefaultScale,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	if s.MarginMM < 0 || s.MarginMM > MaxMarginMM {
		return fmt.Errorf("%w: %.1fmm (must be between 0 and %.0f)", ErrInvalidMargin, s.MarginMM, MaxMarginMM)
	}
	if s.Scale <= 0 || s.Scale > MaxScale {
		return fmt.Errorf("%w: %.2f (must be in (0, %.0f])", ErrInvalidScale, s.Scale, MaxScale)
	}
	return nil
}

// paperInches returns the A4 width and height in inches.
func (s Settings) paperInches() (width, height float64) {
	return PaperWidthMM / mmPerInch, PaperHeightMM / mmPerInch
}

// marginInches returns the uniform margin in inches.
func (s Settings) marginInches() float64 {
	return s.MarginMM / mmPerInch
}

// viewport returns the CSS pixel size of the printable area.
func (s Settings) viewport() (width, height int) {
	w, h := s.paperInches()
	m := 2 * s.marginInches()
	return int((w - m) * cssPxPerInch), int((h - m) * cssPxPerInch)
}
