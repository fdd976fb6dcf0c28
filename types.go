package vidsum

import (
	"time"

	"github.com/alnah/go-vidsum/internal/dispatch"
	"github.com/alnah/go-vidsum/internal/pipeline"
)

// FailureMessage is the alert shown for every non-validation failure.
const FailureMessage = "Failed to process video. Please try again."

// Prompts shown when a submission is missing its input.
const (
	PromptFile = dispatch.PromptFile
	PromptLink = dispatch.PromptLink
)

// SubmissionMode selects how a submission reaches the service.
type SubmissionMode = dispatch.Mode

const (
	ModeFileUpload    = dispatch.ModeFileUpload
	ModeLinkReference = dispatch.ModeLinkReference
)

// SubmissionRequest is one submission: a file or a link, never both.
type SubmissionRequest = dispatch.Request

// FileUpload is a video file selected by the user.
type FileUpload = dispatch.FileUpload

// Endpoints holds the service URL of each mode.
type Endpoints = dispatch.Endpoints

// ServiceResponse is the decoded service reply.
type ServiceResponse = dispatch.Response

// NormalizedDocument is the styled HTML built from a reply.
type NormalizedDocument = pipeline.Document

// NewFileSubmission builds a file-upload submission.
func NewFileSubmission(name string, content []byte) SubmissionRequest {
	return dispatch.NewFileRequest(name, content)
}

// NewLinkSubmission builds a link submission.
func NewLinkSubmission(reference string) SubmissionRequest {
	return dispatch.NewLinkRequest(reference)
}

// RenderedArtifact is the published PDF of the latest successful submission.
type RenderedArtifact struct {
	Bytes     []byte
	Handle    string
	Pages     int
	CreatedAt time.Time
}

// UiState is the snapshot handed to the presentation layer.
type UiState struct {
	Loading      bool   `json:"loading"`
	AlertMessage string `json:"alertMessage"`
	ArtifactURI  string `json:"artifactUri"`
}
