package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/entrhq/kagisearch/pkg/engine"
)

func TestError_Is(t *testing.T) {
	err := authError("invalid token")

	assert.ErrorIs(t, err, ErrAuth)
	assert.NotErrorIs(t, err, ErrBrowser)
	assert.ErrorIs(t, fmt.Errorf("search: %w", err), ErrAuth)

	// A specific error is not a sentinel for another specific error.
	assert.False(t, errors.Is(err, authError("invalid token")))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "kind only", err: &Error{Kind: KindIO}, want: "IO error"},
		{name: "message", err: &Error{Kind: KindAuth, Msg: "login failed"}, want: "authentication failed: login failed"},
		{
			name: "message and cause",
			err:  &Error{Kind: KindBrowser, Msg: "failed to open page", Err: errors.New("target closed")},
			want: "browser error: failed to open page: target closed",
		},
		{name: "cause only", err: &Error{Kind: KindURL, Err: errors.New("bad")}, want: "URL error: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestEngineError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not found", err: fmt.Errorf("%w: #signInForm", engine.ErrNotFound), want: ErrElementNotFound},
		{name: "closed", err: engine.ErrClosed, want: ErrBrowser},
		{name: "net error", err: timeoutError{}, want: ErrIO},
		{name: "eof", err: io.ErrUnexpectedEOF, want: ErrIO},
		{name: "canceled", err: context.Canceled, want: ErrBrowser},
		{name: "already classified", err: authError("login failed"), want: ErrAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engineError(tt.err, "operation")
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLookupError(t *testing.T) {
	err := lookupError(fmt.Errorf("%w: #signInForm", engine.ErrNotFound), "#signInForm")
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.ErrorContains(t, err, "#signInForm")

	err = lookupError(engine.ErrClosed, "#signInForm")
	assert.ErrorIs(t, err, ErrBrowser)
}
