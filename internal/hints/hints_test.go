package hints

import (
	"strings"
	"testing"
)

func TestForBrowserConnect(t *testing.T) {
	orig := IsInContainer
	t.Cleanup(func() { IsInContainer = orig })

	tests := []struct {
		name      string
		env       map[string]string
		container bool
		want      []string
		wantNot   []string
	}{
		{
			name: "CI without sandbox override",
			env:  map[string]string{"CI": "true", "ROD_NO_SANDBOX": "", "ROD_BROWSER_BIN": ""},
			want: []string{"ROD_NO_SANDBOX=1", "ROD_BROWSER_BIN"},
		},
		{
			name:      "container with sandbox disabled and custom browser",
			env:       map[string]string{"CI": "", "GITHUB_ACTIONS": "", "GITLAB_CI": "", "ROD_NO_SANDBOX": "1", "ROD_BROWSER_BIN": "/usr/bin/chromium"},
			container: true,
			wantNot:   []string{"ROD_NO_SANDBOX", "ROD_BROWSER_BIN"},
		},
		{
			name:    "desktop",
			env:     map[string]string{"CI": "", "GITHUB_ACTIONS": "", "GITLAB_CI": "", "ROD_BROWSER_BIN": ""},
			want:    []string{"ROD_BROWSER_BIN"},
			wantNot: []string{"ROD_NO_SANDBOX"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			IsInContainer = func() bool { return tt.container }

			got := ForBrowserConnect()
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("hint %q missing %q", got, w)
				}
			}
			for _, w := range tt.wantNot {
				if strings.Contains(got, w) {
					t.Errorf("hint %q should not mention %q", got, w)
				}
			}
		})
	}
}

func TestForServiceStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{404, "endpoint URL"},
		{403, "access settings"},
		{413, "too large"},
		{502, "status 502"},
		{418, ""},
	}
	for _, tt := range tests {
		got := ForServiceStatus(tt.status)
		if tt.want == "" {
			if got != "" {
				t.Errorf("ForServiceStatus(%d) = %q, want empty", tt.status, got)
			}
			continue
		}
		if !strings.HasPrefix(got, "\n  hint: ") || !strings.Contains(got, tt.want) {
			t.Errorf("ForServiceStatus(%d) = %q, want mention of %q", tt.status, got, tt.want)
		}
	}
}

func TestForMissingEndpoint(t *testing.T) {
	if got := ForMissingEndpoint(); got != "" {
		t.Errorf("expected empty hint, got %q", got)
	}
	got := ForMissingEndpoint("VIDSUM_LINK_ENDPOINT", "VITE_N8N_YOUTUBE_WEBHOOK")
	if !strings.Contains(got, "VIDSUM_LINK_ENDPOINT or VITE_N8N_YOUTUBE_WEBHOOK") {
		t.Errorf("unexpected hint %q", got)
	}
}

func TestForConfigNotFound(t *testing.T) {
	got := ForConfigNotFound([]string{"./vidsum.yaml", "/home/u/.config/vidsum/config.yaml"})
	if !strings.Contains(got, "--config") || !strings.Contains(got, "/home/u/.config/vidsum/config.yaml") {
		t.Errorf("unexpected hint %q", got)
	}
}
