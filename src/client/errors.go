package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredentials is returned by authorization recovery when the session
// holds a token but no username/password to renew it with.
var ErrNoCredentials = errors.New("no stored credentials to recover with")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP error: %d (%s)", e.StatusCode, e.Body)
}

// Unauthorized reports whether the response was an authorization failure.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// AuthExchangeError reports a failure of the token endpoint itself. It
// wraps the underlying oauth2 error, which carries the server response.
type AuthExchangeError struct {
	Err error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("unable to authenticate: %v", e.Err)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}
