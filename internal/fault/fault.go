// Package fault defines the closed set of failure kinds a translation request
// can end in, together with the structured context needed to diagnose them.
package fault

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// MaxBodySnippet bounds how much of an upstream body is kept on an Error.
const MaxBodySnippet = 512

type Kind int

const (
	Unknown Kind = iota
	InvalidInput
	Configuration
	KeyImport
	Signing
	TokenExchange
	Authentication
	Upstream
	Extraction
)

var kindNames = map[Kind]string{
	Unknown:        "unknown",
	InvalidInput:   "invalid_input",
	Configuration:  "configuration",
	KeyImport:      "key_import",
	Signing:        "signing",
	TokenExchange:  "token_exchange",
	Authentication: "authentication",
	Upstream:       "upstream",
	Extraction:     "extraction",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Unknown]
}

// Error is a failure tagged with its Kind. Status, Body and FinishReason are
// only set when an upstream response was involved.
type Error struct {
	Kind         Kind
	Stage        string
	Status       int
	Body         string
	FinishReason string

	err error
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// New returns an Error of the given kind with a fresh cause.
func New(kind Kind, stage, msg string) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		err:   errors.NewWithDepth(1, msg),
	}
}

// Newf is like New with a format string.
func Newf(kind Kind, stage, format string, args ...any) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		err:   errors.NewWithDepthf(1, format, args...),
	}
}

// Wrap tags err with kind. The message is prefixed to the cause.
func Wrap(kind Kind, stage string, err error, msg string) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		err:   errors.WrapWithDepth(1, err, msg),
	}
}

// WithResponse records the upstream status code and a bounded body snippet.
func (e *Error) WithResponse(status int, body []byte) *Error {
	e.Status = status
	e.Body = Snippet(body)
	return e
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok && fe.Kind == kind {
			return true
		}
		err = errors.UnwrapOnce(err)
	}
	return false
}

// HTTPStatus maps err to the status code returned to the inbound caller.
func HTTPStatus(err error) int {
	if KindOf(err) == InvalidInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Snippet truncates body to MaxBodySnippet bytes.
func Snippet(body []byte) string {
	if len(body) > MaxBodySnippet {
		return string(body[:MaxBodySnippet]) + "..."
	}
	return string(body)
}
