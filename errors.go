package vidsum

import (
	"context"
	"errors"

	"github.com/alnah/go-vidsum/internal/artifact"
	"github.com/alnah/go-vidsum/internal/dispatch"
	"github.com/alnah/go-vidsum/internal/render"
)

// Sentinel errors for pipeline operations.
var (
	ErrBusy       = errors.New("a submission is already in progress")
	ErrClosed     = errors.New("pipeline is closed")
	ErrNormalize  = errors.New("summary normalization failed")
	ErrRender     = errors.New("PDF rendering failed")
	ErrPublish    = errors.New("publishing document failed")
	ErrInternal   = errors.New("internal pipeline error")
	ErrNoSummary  = errors.New("no summary available")
	ErrNoArtifact = errors.New("no document available")
)

// Errors re-exported from the stages so callers can test with errors.Is
// without importing internal packages.
var (
	ErrNoFile         = dispatch.ErrNoFile
	ErrNoReference    = dispatch.ErrNoReference
	ErrHandleReleased = artifact.ErrHandleReleased
	ErrHandleNotFound = artifact.ErrHandleNotFound
	ErrBrowserConnect = render.ErrBrowserConnect
	ErrPageCreate     = render.ErrPageCreate
	ErrPageLoad       = render.ErrPageLoad
	ErrPDFGeneration  = render.ErrPDFGeneration
)

// Typed errors of the dispatch stage.
type (
	ValidationError = dispatch.ValidationError
	TransportError  = dispatch.TransportError
	DecodeError     = dispatch.DecodeError
)

// ErrorKind classifies a pipeline error for logs and exit codes.
type ErrorKind string

const (
	KindNone       ErrorKind = ""
	KindValidation ErrorKind = "validation"
	KindTransport  ErrorKind = "transport"
	KindDecode     ErrorKind = "decode"
	KindNormalize  ErrorKind = "normalize"
	KindRender     ErrorKind = "render"
	KindPublish    ErrorKind = "publish"
	KindBusy       ErrorKind = "busy"
	KindCanceled   ErrorKind = "canceled"
	KindInternal   ErrorKind = "internal"
)

// Kind returns the kind of err. Cancellation takes precedence over the stage
// that observed it.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var (
		verr *ValidationError
		terr *TransportError
		derr *DecodeError
	)
	// Transport and decode failures come first: an HTTP client timeout wraps
	// context.DeadlineExceeded without the caller having given up.
	switch {
	case errors.As(err, &terr):
		return KindTransport
	case errors.As(err, &derr):
		return KindDecode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrNormalize):
		return KindNormalize
	case errors.Is(err, ErrRender):
		return KindRender
	case errors.Is(err, ErrPublish):
		return KindPublish
	default:
		return KindInternal
	}
}

// AlertFor returns the message shown to the user for a failed submission.
func AlertFor(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Prompt != "" {
		return verr.Prompt
	}
	return FailureMessage
}
