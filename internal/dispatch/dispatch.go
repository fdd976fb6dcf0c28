package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Defaults for the outbound client.
const (
	DefaultFileField        = "file"
	DefaultTimeout          = 10 * time.Minute
	DefaultMaxResponseBytes = 16 << 20
)

// Dispatcher sends submissions to the summarization service.
// Safe for concurrent use; it holds no per-request state.
type Dispatcher struct {
	endpoints   Endpoints
	client      *http.Client
	fileField   string
	maxResponse int64
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.client = c
		}
	}
}

// WithTimeout sets the client timeout. Ignored when a custom client is supplied afterwards.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithFileField sets the multipart field name used for file uploads.
func WithFileField(name string) Option {
	return func(d *Dispatcher) {
		if name != "" {
			d.fileField = name
		}
	}
}

// WithMaxResponseBytes bounds how much of the reply body is read.
func WithMaxResponseBytes(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxResponse = n
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher for the given endpoints.
func New(endpoints Endpoints, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoints:   endpoints,
		client:      &http.Client{Timeout: DefaultTimeout},
		fileField:   DefaultFileField,
		maxResponse: DefaultMaxResponseBytes,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch validates req, sends it, and decodes the reply.
// Validation failures return a *ValidationError without touching the network.
// Network failures and non-2xx statuses return a *TransportError; an
// unparseable body returns a *DecodeError.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	endpoint := d.endpoints.For(req.Mode)
	if endpoint == "" {
		return Response{}, fmt.Errorf("%w: %s", ErrNoEndpoint, req.Mode)
	}

	body, contentType, err := d.encode(req)
	if err != nil {
		return Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Response{}, &TransportError{Endpoint: endpoint, Err: err}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return Response{}, d.transportError(ctx, endpoint, err)
	}
	defer resp.Body.Close()

	d.logger.Debug("service replied",
		"mode", req.Mode.String(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Response{}, &TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxResponse+1))
	if err != nil {
		return Response{}, d.transportError(ctx, endpoint, err)
	}
	if int64(len(data)) > d.maxResponse {
		return Response{}, &DecodeError{Err: fmt.Errorf("%w: %d bytes", ErrResponseLarge, d.maxResponse)}
	}

	return decodeResponse(data)
}

// transportError reports a failed exchange. Cancellation by the caller is
// returned as the context error; anything else, the client's own timeout
// included, is a TransportError.
func (d *Dispatcher) transportError(ctx context.Context, endpoint string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("calling summarization service: %w", ctxErr)
	}
	return &TransportError{Endpoint: endpoint, Err: err}
}

// encode serializes the payload for req.Mode.
func (d *Dispatcher) encode(req Request) (io.Reader, string, error) {
	switch req.Mode {
	case ModeFileUpload:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		name := req.File.Name
		if name == "" {
			name = "video"
		}
		part, err := w.CreateFormFile(d.fileField, name)
		if err != nil {
			return nil, "", fmt.Errorf("building multipart body: %w", err)
		}
		if _, err := part.Write(req.File.Content); err != nil {
			return nil, "", fmt.Errorf("building multipart body: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("building multipart body: %w", err)
		}
		return &buf, w.FormDataContentType(), nil

	case ModeLinkReference:
		payload, err := json.Marshal(linkPayload{YoutubeURL: strings.TrimSpace(req.Reference)})
		if err != nil {
			return nil, "", fmt.Errorf("encoding link payload: %w", err)
		}
		return bytes.NewReader(payload), "application/json", nil

	default:
		return nil, "", fmt.Errorf("%w: %d", ErrUnknownMode, int(req.Mode))
	}
}

// linkPayload is the JSON body sent for link submissions.
type linkPayload struct {
	YoutubeURL string `json:"youtubeUrl"`
}

// decodeResponse reads the recognized fields from a JSON reply.
// Unknown layouts (arrays, non-string fields) degrade to empty fields.
func decodeResponse(data []byte) (Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Response{}, &DecodeError{Err: errors.New("empty body")}
	}

	var raw any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Response{}, &DecodeError{Err: err}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return Response{}, nil
	}

	html, _ := obj["html"].(string)
	markdown, _ := obj["markdown"].(string)
	return Response{MarkupHTML: html, MarkupSource: markdown}, nil
}
