package main

import (
	"errors"
	"os"

	vidsum "github.com/alnah/go-vidsum"
	"github.com/alnah/go-vidsum/internal/config"
)

// Exit codes for vidsum CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
	ExitService = 5 // Summarization service unreachable or failing
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, vidsum.ErrBrowserConnect) ||
		errors.Is(err, vidsum.ErrPageCreate) ||
		errors.Is(err, vidsum.ErrPageLoad) ||
		errors.Is(err, vidsum.ErrPDFGeneration) ||
		errors.Is(err, vidsum.ErrRender) {
		return ExitBrowser
	}

	// Service errors (exit 5)
	switch vidsum.Kind(err) {
	case vidsum.KindTransport, vidsum.KindDecode:
		return ExitService
	case vidsum.KindValidation:
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadVideo) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrMissingEndpoint) ||
		errors.Is(err, config.ErrEmptyConfigName) {
		return ExitUsage
	}

	return ExitGeneral
}
