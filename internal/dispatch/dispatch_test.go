package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeService records requests and replies with a fixed status and body.
type fakeService struct {
	status int
	body   string
	calls  atomic.Int32

	lastContentType string
	lastBody        []byte
	lastFileName    string
	lastFileContent []byte
}

func (f *fakeService) handler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.lastContentType = r.Header.Get("Content-Type")
		if strings.HasPrefix(f.lastContentType, "multipart/form-data") {
			file, header, err := r.FormFile("file")
			if err != nil {
				t.Errorf("reading multipart file: %v", err)
			} else {
				f.lastFileName = header.Filename
				f.lastFileContent, _ = io.ReadAll(file)
				_ = file.Close()
			}
		} else {
			f.lastBody, _ = io.ReadAll(r.Body)
		}
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}
}

func newTestDispatcher(t *testing.T, svc *fakeService) *Dispatcher {
	t.Helper()
	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)
	return New(Endpoints{FileURL: srv.URL + "/file", LinkURL: srv.URL + "/link"})
}

func TestDispatch_ValidationSkipsNetwork(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantPrompt string
		wantErr    error
	}{
		{"empty link", NewLinkRequest(""), PromptLink, ErrNoReference},
		{"spaces link", NewLinkRequest("   "), PromptLink, ErrNoReference},
		{"tabs and newlines link", NewLinkRequest("\t\n "), PromptLink, ErrNoReference},
		{"nil file", Request{Mode: ModeFileUpload}, PromptFile, ErrNoFile},
		{"empty file", NewFileRequest("clip.mp4", nil), PromptFile, ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{status: http.StatusOK, body: `{"html":"<p>x</p>"}`}
			d := newTestDispatcher(t, svc)

			_, err := d.Dispatch(context.Background(), tt.req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Prompt != tt.wantPrompt {
				t.Errorf("prompt = %q, want %q", verr.Prompt, tt.wantPrompt)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v in chain, got %v", tt.wantErr, err)
			}
			if n := svc.calls.Load(); n != 0 {
				t.Errorf("expected no network call, got %d", n)
			}
		})
	}
}

func TestDispatch_LinkSendsJSON(t *testing.T) {
	svc := &fakeService{status: http.StatusOK, body: `{"markdown":"## Hi"}`}
	d := newTestDispatcher(t, svc)

	resp, err := d.Dispatch(context.Background(), NewLinkRequest("  https://video.example/abc "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if svc.calls.Load() != 1 {
		t.Fatalf("expected exactly one call, got %d", svc.calls.Load())
	}
	if svc.lastContentType != "application/json" {
		t.Errorf("content type = %q", svc.lastContentType)
	}
	var payload map[string]string
	if err := json.Unmarshal(svc.lastBody, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["youtubeUrl"] != "https://video.example/abc" {
		t.Errorf("youtubeUrl = %q", payload["youtubeUrl"])
	}
	if resp.MarkupSource != "## Hi" || resp.MarkupHTML != "" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDispatch_FileSendsMultipart(t *testing.T) {
	svc := &fakeService{status: http.StatusOK, body: `{"html":"<h1>Lecture</h1>","markdown":"# ignored"}`}
	d := newTestDispatcher(t, svc)

	resp, err := d.Dispatch(context.Background(), NewFileRequest("lecture.mp4", []byte("video-bytes")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(svc.lastContentType, "multipart/form-data") {
		t.Errorf("content type = %q", svc.lastContentType)
	}
	if svc.lastFileName != "lecture.mp4" {
		t.Errorf("file name = %q", svc.lastFileName)
	}
	if string(svc.lastFileContent) != "video-bytes" {
		t.Errorf("file content = %q", svc.lastFileContent)
	}
	if resp.MarkupHTML != "<h1>Lecture</h1>" || resp.MarkupSource != "# ignored" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDispatch_EndpointPerMode(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	d := New(Endpoints{FileURL: srv.URL + "/upload", LinkURL: srv.URL + "/youtube"})
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, NewLinkRequest("https://video.example/abc")); err != nil {
		t.Fatalf("link: %v", err)
	}
	if _, err := d.Dispatch(ctx, NewFileRequest("a.mp4", []byte{1})); err != nil {
		t.Fatalf("file: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/youtube" || paths[1] != "/upload" {
		t.Errorf("paths = %v", paths)
	}
}

func TestDispatch_Failures(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantTransport bool
		wantDecode    bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantTransport: true},
		{name: "not found", status: http.StatusNotFound, wantTransport: true},
		{name: "invalid JSON", status: http.StatusOK, body: "<html>oops</html>", wantDecode: true},
		{name: "empty body", status: http.StatusOK, body: "", wantDecode: true},
		{name: "null body", status: http.StatusOK, body: "null", wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{status: tt.status, body: tt.body}
			d := newTestDispatcher(t, svc)

			_, err := d.Dispatch(context.Background(), NewLinkRequest("https://video.example/abc"))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var terr *TransportError
			var derr *DecodeError
			if got := errors.As(err, &terr); got != tt.wantTransport {
				t.Errorf("TransportError = %v, want %v (err: %v)", got, tt.wantTransport, err)
			}
			if got := errors.As(err, &derr); got != tt.wantDecode {
				t.Errorf("DecodeError = %v, want %v (err: %v)", got, tt.wantDecode, err)
			}
			if tt.wantTransport && terr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", terr.StatusCode, tt.status)
			}
		})
	}
}

func TestDispatch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := New(Endpoints{LinkURL: url})
	_, err := d.Dispatch(context.Background(), NewLinkRequest("https://video.example/abc"))

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if terr.StatusCode != 0 {
		t.Errorf("status = %d, want 0", terr.StatusCode)
	}
}

func TestDispatch_Timeouts(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	t.Run("client timeout is a transport error", func(t *testing.T) {
		d := New(Endpoints{LinkURL: srv.URL}, WithTimeout(50*time.Millisecond))
		_, err := d.Dispatch(context.Background(), NewLinkRequest("https://video.example/abc"))

		var terr *TransportError
		if !errors.As(err, &terr) {
			t.Fatalf("expected *TransportError, got %v", err)
		}
	})

	t.Run("caller cancellation is not", func(t *testing.T) {
		d := New(Endpoints{LinkURL: srv.URL})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := d.Dispatch(ctx, NewLinkRequest("https://video.example/abc"))

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context.DeadlineExceeded, got %v", err)
		}
		var terr *TransportError
		if errors.As(err, &terr) {
			t.Errorf("caller cancellation reported as *TransportError: %v", err)
		}
	})
}

func TestDispatch_ResponseTooLarge(t *testing.T) {
	svc := &fakeService{status: http.StatusOK, body: `{"markdown":"` + strings.Repeat("a", 64) + `"}`}
	srv := httptest.NewServer(svc.handler(t))
	defer srv.Close()

	d := New(Endpoints{LinkURL: srv.URL}, WithMaxResponseBytes(16))
	_, err := d.Dispatch(context.Background(), NewLinkRequest("https://video.example/abc"))

	if !errors.Is(err, ErrResponseLarge) {
		t.Fatalf("expected ErrResponseLarge, got %v", err)
	}
}

func TestDispatch_MissingEndpoint(t *testing.T) {
	d := New(Endpoints{})
	_, err := d.Dispatch(context.Background(), NewLinkRequest("https://video.example/abc"))
	if !errors.Is(err, ErrNoEndpoint) {
		t.Fatalf("expected ErrNoEndpoint, got %v", err)
	}
}

func TestDecodeResponse_Layouts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Response
	}{
		{"both fields", `{"html":"<p>a</p>","markdown":"a"}`, Response{MarkupHTML: "<p>a</p>", MarkupSource: "a"}},
		{"neither field", `{"summary":"x"}`, Response{}},
		{"non-string html", `{"html":42,"markdown":"# t"}`, Response{MarkupSource: "# t"}},
		{"array body", `["html"]`, Response{}},
		{"string body", `"hello"`, Response{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEndpoints_For(t *testing.T) {
	e := Endpoints{FileURL: "f", LinkURL: "l"}
	if e.For(ModeFileUpload) != "f" {
		t.Error("file mode should select FileURL")
	}
	if e.For(ModeLinkReference) != "l" {
		t.Error("link mode should select LinkURL")
	}
	if e.For(Mode(99)) != "" {
		t.Error("unknown mode should select nothing")
	}
}
