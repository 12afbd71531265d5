package fanout

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindConfiguration means the request was never attempted: missing
	// endpoint, credential reference or credential.
	KindConfiguration
	// KindTransport covers timeouts, refused connections and DNS failures.
	KindTransport
	// KindProtocol is a non-2xx HTTP status.
	KindProtocol
	// KindMalformedResponse is an undecodable reply or one missing the
	// generated text.
	KindMalformedResponse
	// KindInternal is a recovered panic inside a per-model task.
	KindInternal
)

var (
	ErrEmptyPrompt         = errors.New("prompt cannot be empty")
	ErrEmptyOriginalPrompt = errors.New("original prompt cannot be empty")
	ErrEmptyImprovedPrompt = errors.New("could not extract an improved prompt from the model reply")
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindConfiguration:
		return "configuration"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindMalformedResponse:
		return "malformed_response"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is the failure of a single model call.
//
// Its message is meant to be shown to the user as-is.
type Error struct {
	Kind     ErrorKind
	Status   int
	Endpoint string
	Message  string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal
// for any other non-nil error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}
