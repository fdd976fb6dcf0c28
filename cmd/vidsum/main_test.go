package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	vidsum "github.com/alnah/go-vidsum"
)

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"vidsum"}, ExitUsage, "", "Usage: vidsum"},
		{"unknown command", []string{"vidsum", "transcode"}, ExitUsage, "", `unknown command "transcode"`},
		{"version", []string{"vidsum", "version"}, ExitSuccess, "vidsum dev", ""},
		{"version flag", []string{"vidsum", "--version"}, ExitSuccess, "vidsum dev", ""},
		{"help", []string{"vidsum", "help"}, ExitSuccess, "Commands:", ""},
		{"help submit", []string{"vidsum", "help", "submit"}, ExitSuccess, "--link", ""},
		{"submit without mode", []string{"vidsum", "submit"}, ExitUsage, "", "exactly one of --link or --file"},
		{"serve bad flag", []string{"vidsum", "serve", "--nope"}, ExitUsage, "", "invalid usage"},
		{"submit missing endpoint", []string{"vidsum", "submit", "-l", "https://v/1"}, ExitUsage, "", "VIDSUM_LINK_ENDPOINT"},
		{"serve missing endpoints", []string{"vidsum", "serve"}, ExitUsage, "", "service.fileEndpoint, service.linkEndpoint"},
		{"missing config", []string{"vidsum", "config", "-c", "./nowhere/vidsum.yaml"}, ExitUsage, "", "config file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, nil)
			code := runMain(tt.args, env.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(env.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want substring %q", env.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want substring %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunSubmit_Link(t *testing.T) {
	t.Parallel()

	svc, hits := newSummaryService(t, http.StatusOK, `{"markdown":"# Title\n- a\n- b"}`)
	env := newTestEnv(t, map[string]string{"VIDSUM_LINK_ENDPOINT": svc.URL})

	dir := t.TempDir()
	out := filepath.Join(dir, "out", "summary.pdf")
	md := filepath.Join(dir, "summary.md")

	code := runMain([]string{"vidsum", "submit", "https://youtu.be/x", "-o", out, "--markdown", md}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if hits.Load() != 1 {
		t.Errorf("service hits = %d, want 1", hits.Load())
	}

	pdf, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Equal(pdf, fakePDF) {
		t.Errorf("output = %q, want renderer bytes", pdf)
	}

	mdOut, err := os.ReadFile(md)
	if err != nil {
		t.Fatalf("reading markdown: %v", err)
	}
	if string(mdOut) != "# Title\n- a\n- b" {
		t.Errorf("markdown = %q", mdOut)
	}

	if !strings.Contains(env.stdout.String(), "Summary written to "+out+" (1 pages)") {
		t.Errorf("stdout = %q", env.stdout)
	}
	rendered := env.renderer.rendered()
	if len(rendered) != 1 || !strings.Contains(rendered[0], "<h1") {
		t.Errorf("renderer did not receive the styled document: %v", rendered)
	}
	if env.closed != 1 {
		t.Errorf("renderer closed %d times, want 1", env.closed)
	}
}

func TestRunSubmit_File(t *testing.T) {
	t.Parallel()

	svc, hits := newSummaryService(t, http.StatusOK, `{"html":"<p>from upload</p>"}`)
	env := newTestEnv(t, map[string]string{"VIDSUM_FILE_ENDPOINT": svc.URL})

	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(video, []byte("not really a video"), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "s.pdf")

	code := runMain([]string{"vidsum", "submit", "-f", video, "-o", out, "-q"}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	if hits.Load() != 1 {
		t.Errorf("service hits = %d, want 1", hits.Load())
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output not written: %v", err)
	}
	if env.stdout.Len() != 0 {
		t.Errorf("quiet mode printed %q", env.stdout)
	}
}

func TestRunSubmit_MissingVideo(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"VIDSUM_FILE_ENDPOINT": "http://127.0.0.1:1/up"})
	code := runMain([]string{"vidsum", "submit", "-f", filepath.Join(t.TempDir(), "absent.mp4")}, env.Environment)
	if code != ExitIO {
		t.Errorf("exit code = %d, want %d", code, ExitIO)
	}
}

func TestRunSubmit_BlankInputNeverCallsService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		prompt string
	}{
		{"blank link", []string{"--link", "   "}, vidsum.PromptLink},
		{"blank file", []string{"--file", ""}, vidsum.PromptFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, hits := newSummaryService(t, http.StatusOK, `{"html":"<p>x</p>"}`)
			env := newTestEnv(t, map[string]string{
				"VIDSUM_FILE_ENDPOINT": svc.URL,
				"VIDSUM_LINK_ENDPOINT": svc.URL,
			})
			out := filepath.Join(t.TempDir(), "s.pdf")

			code := runMain(append([]string{"vidsum", "submit", "-q", "-o", out}, tt.args...), env.Environment)
			if code != ExitUsage {
				t.Errorf("exit code = %d, want %d", code, ExitUsage)
			}
			if hits.Load() != 0 {
				t.Errorf("service hits = %d, want 0", hits.Load())
			}
			if got := strings.TrimSpace(env.stderr.String()); got != tt.prompt {
				t.Errorf("stderr = %q, want only the prompt %q", got, tt.prompt)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("output should not exist, stat err = %v", err)
			}
		})
	}
}

func TestRunSubmit_ServiceFailure(t *testing.T) {
	t.Parallel()

	svc, _ := newSummaryService(t, http.StatusBadGateway, `{"error":"upstream"}`)
	env := newTestEnv(t, map[string]string{"VIDSUM_LINK_ENDPOINT": svc.URL})
	out := filepath.Join(t.TempDir(), "s.pdf")

	code := runMain([]string{"vidsum", "submit", "-l", "https://youtu.be/x", "-o", out}, env.Environment)
	if code != ExitService {
		t.Errorf("exit code = %d, want %d", code, ExitService)
	}
	stderr := env.stderr.String()
	if !strings.Contains(stderr, vidsum.FailureMessage) {
		t.Errorf("stderr missing failure message: %q", stderr)
	}
	if !strings.Contains(stderr, "status 502") || !strings.Contains(stderr, "hint:") {
		t.Errorf("stderr missing status detail or hint: %q", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not exist, stat err = %v", err)
	}
}

func TestRunConfigCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vidsum.yaml")
	yaml := "service:\n  linkEndpoint: http://file/link\nserver:\n  addr: \":9999\"\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	env := newTestEnv(t, map[string]string{"VIDSUM_FILE_ENDPOINT": "http://env/up"})
	code := runMain([]string{"vidsum", "config", "-c", cfgPath}, env.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}

	out := env.stdout.String()
	for _, want := range []string{"http://file/link", "http://env/up", ":9999", "10m0s"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
}

func TestRunServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	env := newTestEnv(t, map[string]string{
		"VIDSUM_FILE_ENDPOINT": "http://svc/up",
		"VIDSUM_LINK_ENDPOINT": "http://svc/link",
	})
	env.Context = ctx

	done := make(chan int, 1)
	go func() {
		done <- runMain([]string{"vidsum", "serve", "-a", "127.0.0.1:0", "-q"}, env.Environment)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != ExitSuccess {
			t.Errorf("exit code = %d, stderr: %s", code, env.stderr)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	if env.closed != 1 {
		t.Errorf("renderer closed %d times, want 1", env.closed)
	}
}

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", context.DeadlineExceeded, "--timeout"},
		{"service 404", &vidsum.TransportError{Endpoint: "x", StatusCode: 404}, "endpoint URL"},
		{"browser", vidsum.ErrBrowserConnect, "hint:"},
		{"unrelated", vidsum.ErrBusy, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want none", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestMissingEndpointVars(t *testing.T) {
	t.Parallel()

	got := missingEndpointVars("summarization endpoint not configured: service.fileEndpoint, service.linkEndpoint")
	if len(got) != 2 || got[0] != "VIDSUM_FILE_ENDPOINT" || got[1] != "VIDSUM_LINK_ENDPOINT" {
		t.Errorf("missingEndpointVars() = %v", got)
	}
}
