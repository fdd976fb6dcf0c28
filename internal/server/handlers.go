package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	vidsum "github.com/alnah/go-vidsum"
)

// linkSubmission is the JSON body of a link submission.
type linkSubmission struct {
	YoutubeURL string `json:"youtubeUrl"`
}

// submitResponse reports the outcome of a submission with the resulting state.
type submitResponse struct {
	vidsum.UiState
	Error string `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions()})
}

func (s *Server) handleSubmitFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.rejectBody(w, err)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req := vidsum.SubmissionRequest{Mode: vidsum.ModeFileUpload}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		content, rerr := io.ReadAll(file)
		if rerr != nil {
			s.rejectBody(w, rerr)
			return
		}
		req = vidsum.NewFileSubmission(header.Filename, content)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Submitted without a file; the pipeline raises the prompt.
	default:
		s.rejectBody(w, err)
		return
	}

	s.submit(w, r, req)
}

func (s *Server) handleSubmitLink(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var body linkSubmission
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.rejectBody(w, err)
		return
	}
	s.submit(w, r, vidsum.NewLinkSubmission(body.YoutubeURL))
}

// submit runs req on the caller's pipeline. The submission is detached from
// the request context so a closed tab does not abort work in flight.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, req vidsum.SubmissionRequest) {
	_, p, err := s.session(w, r)
	if err != nil {
		s.internalError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.submitTimeout)
	defer cancel()

	err = p.Submit(ctx, req)
	resp := submitResponse{UiState: p.State()}
	if err != nil {
		resp.Error = string(vidsum.Kind(err))
	}
	writeJSON(w, submitStatus(err), resp)
}

// submitStatus maps a submission error to an HTTP status.
func submitStatus(err error) int {
	if errors.Is(err, vidsum.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	switch vidsum.Kind(err) {
	case vidsum.KindNone:
		return http.StatusOK
	case vidsum.KindBusy:
		return http.StatusConflict
	case vidsum.KindValidation:
		return http.StatusUnprocessableEntity
	case vidsum.KindTransport, vidsum.KindDecode:
		return http.StatusBadGateway
	case vidsum.KindCanceled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleState answers a caller without a session with the idle state.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.lookup(r)
	if !ok {
		writeJSON(w, http.StatusOK, vidsum.UiState{})
		return
	}
	writeJSON(w, http.StatusOK, p.State())
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	data, err := p.Resolve(chi.URLParam(r, "id"))
	switch {
	case err == nil:
	case errors.Is(err, vidsum.ErrHandleReleased):
		writeError(w, http.StatusGone, "document has been replaced or released")
		return
	default:
		writeError(w, http.StatusNotFound, "document not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "summary.pdf", time.Time{}, bytes.NewReader(data))
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	_, p, ok := s.lookup(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no summary available")
		return
	}

	md, err := p.Markdown()
	if errors.Is(err, vidsum.ErrNoSummary) {
		writeError(w, http.StatusNotFound, "no summary available")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.md"`)
	_, _ = io.WriteString(w, md)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.sessions.Remove(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

// rejectBody answers a malformed or oversized request body.
func (s *Server) rejectBody(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
		return
	}
	writeError(w, http.StatusBadRequest, "malformed request body")
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
