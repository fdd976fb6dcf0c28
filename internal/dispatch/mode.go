package dispatch

import (
	"fmt"
	"strings"
)

// Mode selects how a submission is encoded and where it is sent.
type Mode int

const (
	ModeFileUpload Mode = iota + 1
	ModeLinkReference
)

func (m Mode) String() string {
	switch m {
	case ModeFileUpload:
		return "file"
	case ModeLinkReference:
		return "link"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// FileUpload is a video file selected by the user.
type FileUpload struct {
	Name    string
	Content []byte
}

// Request is one submission. File is set iff Mode is ModeFileUpload;
// Reference is set iff Mode is ModeLinkReference.
type Request struct {
	Mode      Mode
	File      *FileUpload
	Reference string
}

// NewFileRequest builds a file submission.
func NewFileRequest(name string, content []byte) Request {
	return Request{Mode: ModeFileUpload, File: &FileUpload{Name: name, Content: content}}
}

// NewLinkRequest builds a link submission.
func NewLinkRequest(reference string) Request {
	return Request{Mode: ModeLinkReference, Reference: reference}
}

// Validate checks the request before anything is sent.
// Returns a *ValidationError describing the missing input.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeFileUpload:
		if r.File == nil || len(r.File.Content) == 0 {
			return &ValidationError{Mode: r.Mode, Prompt: PromptFile, Err: ErrNoFile}
		}
	case ModeLinkReference:
		if strings.TrimSpace(r.Reference) == "" {
			return &ValidationError{Mode: r.Mode, Prompt: PromptLink, Err: ErrNoReference}
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(r.Mode))
	}
	return nil
}

// Endpoints holds the two service URLs, one per mode.
type Endpoints struct {
	FileURL string
	LinkURL string
}

// For returns the endpoint for mode, or "" if the mode is unknown.
func (e Endpoints) For(mode Mode) string {
	switch mode {
	case ModeFileUpload:
		return e.FileURL
	case ModeLinkReference:
		return e.LinkURL
	default:
		return ""
	}
}

// Response is the decoded reply of the summarization service.
// Either field may be empty; both empty is not an error.
type Response struct {
	MarkupHTML   string
	MarkupSource string
}
