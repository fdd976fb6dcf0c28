package assets

import (
	"fmt"
	"regexp"
)

// DefaultName is the name of the built-in summary style and template.
const DefaultName = "summary"

// AssetLoader defines the contract for loading CSS styles and HTML templates.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	LoadTemplate(name string) (string, error)
}

// assetName restricts names to a single plain path element.
var assetName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateAssetName returns ErrInvalidAssetName unless name is 1 to 64
// letters, digits, '-' or '_'. Separators and dots never pass.
func ValidateAssetName(name string) error {
	if !assetName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
