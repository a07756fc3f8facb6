// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/username/finsync/src/client"
)

// Define common service errors
var (
	// ErrNotBalanced blocks submission of a transfer whose per-currency
	// amounts do not cancel out. No request is sent in that case.
	ErrNotBalanced = errors.New("transfer amounts are not balanced per currency")
)

// Transport is the request surface the entity caches consume.
type Transport interface {
	Get(ctx context.Context, path string, headers http.Header) (*client.Response, error)
	PostJSON(ctx context.Context, path string, body any, headers http.Header) (*client.Response, error)
	PostForm(ctx context.Context, path string, form url.Values, headers http.Header) (*client.Response, error)
	Post(ctx context.Context, path, contentType string, body []byte, headers http.Header) (*client.Response, error)
}

// SessionState is the slice of the auth session the caches depend on.
type SessionState interface {
	Authorized() bool
}
