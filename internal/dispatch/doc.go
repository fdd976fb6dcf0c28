// Package dispatch sends one submission to the remote summarization service
// and decodes its reply.
//
// A submission is either a video file (sent as multipart/form-data) or a link
// to a hosted video (sent as a JSON body). The mode selects both the payload
// shape and the endpoint. Input is validated before any network I/O, and each
// valid call issues exactly one request; there is no retry.
package dispatch
