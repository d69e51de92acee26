package search

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/entrhq/kagisearch/pkg/engine"
)

// Kind classifies a search failure.
type Kind int

const (
	// KindAuth means a credential was rejected or the session cannot satisfy a sign-in redirect
	KindAuth Kind = iota + 1
	// KindElementNotFound means expected page structure is absent
	KindElementNotFound
	// KindBrowser means the automation engine failed or navigation ended somewhere unexpected
	KindBrowser
	// KindURL means a navigation URL could not be built or parsed
	KindURL
	// KindIO covers transport faults reported by collaborators
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "authentication failed"
	case KindElementNotFound:
		return "element not found"
	case KindBrowser:
		return "browser error"
	case KindURL:
		return "URL error"
	case KindIO:
		return "IO error"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by every Controller operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuth) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrAuth            = &Error{Kind: KindAuth}
	ErrElementNotFound = &Error{Kind: KindElementNotFound}
	ErrBrowser         = &Error{Kind: KindBrowser}
	ErrURL             = &Error{Kind: KindURL}
	ErrIO              = &Error{Kind: KindIO}
)

func authError(format string, args ...any) error {
	return &Error{Kind: KindAuth, Msg: fmt.Sprintf(format, args...)}
}

func browserError(err error, format string, args ...any) error {
	return &Error{Kind: KindBrowser, Msg: fmt.Sprintf(format, args...), Err: err}
}

func elementError(err error, selector string) error {
	return &Error{Kind: KindElementNotFound, Msg: selector, Err: err}
}

func urlError(err error, format string, args ...any) error {
	return &Error{Kind: KindURL, Msg: fmt.Sprintf(format, args...), Err: err}
}

// engineError classifies a failure reported by the automation engine.
func engineError(err error, format string, args ...any) error {
	var searchErr *Error
	if errors.As(err, &searchErr) {
		return err
	}
	kind := KindBrowser
	var netErr net.Error
	switch {
	case isNotFound(err):
		kind = KindElementNotFound
	case errors.As(err, &netErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		kind = KindIO
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func isNotFound(err error) bool {
	return errors.Is(err, engine.ErrNotFound)
}
