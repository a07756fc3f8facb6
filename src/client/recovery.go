package client

import (
	"context"
	"sync"
)

// recovery drives the session through re-authentication after a request
// fails with 401. Per failing request the flow is: re-authenticate with the
// retained username/password, then let the transport replay the original
// call exactly once. A replay is never intercepted again, which bounds the
// retry depth to 1 by construction.
type recovery struct {
	mu      sync.Mutex
	session *Session
}

// fix re-authenticates after an authorization failure. A nil return means
// the caller may replay the original request with refreshed headers.
//
// Concurrent 401s are deduplicated: the mutex serializes recoveries, and a
// waiter whose token generation is already stale simply reuses the token
// the winning recovery obtained.
func (r *recovery) fix(ctx context.Context, seenGeneration uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session.Generation() != seenGeneration {
		return nil
	}

	username, password, ok := r.session.credentials()
	if !ok {
		// A token was injected (e.g. restored from storage) without
		// credentials, so there is nothing to renew it with.
		if r.session.Token() != "" {
			r.session.Clear("Access token rejected")
		} else {
			r.session.Clear("")
		}
		return ErrNoCredentials
	}

	if err := r.session.Authenticate(ctx, username, password); err != nil {
		r.session.Clear("Unable to authenticate")
		return err
	}
	return nil
}
