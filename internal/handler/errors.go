package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chenhe/lskyctl/internal/lsky"
	"github.com/chenhe/lskyctl/internal/msg"
)

// ErrNotHandled is returned when a request does not belong to this backend. It is a silent
// pass, not a failure: the host is expected to offer the request to another backend.
var ErrNotHandled = errors.New("request is not handled by the lsky pro backend")

// InputError marks a failure the user can fix by changing the policy configuration, as opposed
// to a defect in the backend itself.
type InputError struct {
	Msg string
	Err error
}

func (e *InputError) Error() string {
	return e.Msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// MapRemoteError converts classified API failures and transport failures into user-facing
// input errors with fixed messages. Anything else passes through unchanged.
func MapRemoteError(err error) error {
	var apiErr *lsky.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return &InputError{Msg: msg.AuthFailed, Err: err}
		case http.StatusForbidden:
			return &InputError{Msg: msg.APIDisabled, Err: err}
		case http.StatusTooManyRequests:
			return &InputError{Msg: msg.QuotaExceeded, Err: err}
		}
		return &InputError{Msg: fmt.Sprintf(msg.APIError, apiErr.StatusCode, apiErr.Msg), Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &InputError{Msg: fmt.Sprintf(msg.RequestFailed, err), Err: err}
	}

	return err
}
