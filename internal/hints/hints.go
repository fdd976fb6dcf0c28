// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"fmt"
	"os"
	"strings"

	"github.com/alnah/go-vidsum/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about raising timeouts for long videos.
func ForTimeout() string {
	return format("long videos take a while to summarize; raise --timeout or VIDSUM_TIMEOUT")
}

// ForMissingEndpoint names the variables that configure service endpoints.
func ForMissingEndpoint(vars ...string) string {
	if len(vars) == 0 {
		return ""
	}
	return format("set " + strings.Join(vars, " or ") + " (a .env file in the working directory is read too)")
}

// ForServiceStatus explains a non-success status from the summarization service.
func ForServiceStatus(status int) string {
	switch {
	case status == 404:
		return format("check the endpoint URL; the webhook may not be active")
	case status == 401 || status == 403:
		return format("the service rejected the request; check its access settings")
	case status == 413:
		return format("the video is too large for the service")
	case status >= 500:
		return format(fmt.Sprintf("the service failed (status %d); try again later", status))
	default:
		return ""
	}
}

// ForConfigNotFound returns hints for config file not found errors.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/vidsum") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
