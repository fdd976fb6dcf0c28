package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want []string
	}{
		{nil, []string{"serve", "submit", "config", "doctor"}},
		{[]string{"serve"}, []string{"--addr", "--workers", "--max-sessions", "VIDSUM_FILE_ENDPOINT"}},
		{[]string{"submit"}, []string{"--link", "--file", "--output", "--markdown", "VITE_N8N_YOUTUBE_WEBHOOK"}},
		{[]string{"config"}, []string{"--config", "--env-file"}},
		{[]string{"doctor"}, []string{"--json"}},
		{[]string{"version"}, []string{"vidsum version"}},
		{[]string{"help"}, []string{"help [command]"}},
		{[]string{"nope"}, []string{"Unknown command: nope", "Commands:"}},
	}

	for _, tt := range tests {
		name := "main"
		if len(tt.args) > 0 {
			name = tt.args[0]
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			runHelp(tt.args, &buf)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("help %v missing %q", tt.args, want)
				}
			}
		})
	}
}

func TestHelpDefaultsMatchConstants(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printSubmitUsage(&buf)
	if !strings.Contains(buf.String(), "default "+defaultOutput) {
		t.Errorf("submit help does not mention default output %q", defaultOutput)
	}
}
