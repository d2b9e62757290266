package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure so callers can tell client input
// problems from backend problems without matching on messages.
type ErrorKind string

const (
	KindInvalidReference          ErrorKind = "INVALID_REFERENCE"
	KindUnsupportedContentType    ErrorKind = "UNSUPPORTED_CONTENT_TYPE"
	KindAcquisitionFailed         ErrorKind = "ACQUISITION_FAILED"
	KindTranscriptionFailed       ErrorKind = "TRANSCRIPTION_FAILED"
	KindGenerationUnavailable     ErrorKind = "GENERATION_UNAVAILABLE"
	KindMalformedGenerationOutput ErrorKind = "MALFORMED_GENERATION_OUTPUT"
)

// IsClientError reports whether the kind was caused by the caller's input.
func (k ErrorKind) IsClientError() bool {
	return k == KindInvalidReference || k == KindUnsupportedContentType
}

// ErrAccessDenied is wrapped by audio extractors when the video platform
// rejects the request (403, login wall, private video).
var ErrAccessDenied = errors.New("access denied by video platform")

// Error is the only error type returned by pipeline stages. Message is safe to
// show to untrusted callers; Err carries the collaborator cause and is never
// serialised.
type Error struct {
	Kind    ErrorKind `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Kind),
		Message: e.Message,
	})
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
