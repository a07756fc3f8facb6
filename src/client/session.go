package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/username/finsync/src/alerts"
	"github.com/username/finsync/src/logger"
	"golang.org/x/oauth2"
)

// TokenStore is the durable home of the access token. Only the token is
// persisted; username and password never leave process memory.
type TokenStore interface {
	SaveToken(token string) error
	LoadToken() (string, bool, error)
	DeleteToken() error
}

// Session owns the credentials and access token for the current user.
// It performs the password-grant exchange but no other I/O; requests are
// authorized by the transport reading Token.
type Session struct {
	mu         sync.Mutex
	username   string
	password   string
	token      string
	generation uint64 // bumped on every token change

	store TokenStore
	sink  *alerts.Sink
	orch  *Orchestrator
	oauth oauth2.Config

	// httpClient is the transport's counting client, bound during wiring
	// so token exchanges are reflected in the pending-request counter.
	httpClient *http.Client
}

func NewSession(serverURL, clientID string, store TokenStore, sink *alerts.Sink, orch *Orchestrator) *Session {
	return &Session{
		store: store,
		sink:  sink,
		orch:  orch,
		oauth: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{
				TokenURL: serverURL + "oauth/token",
				// client_id travels in the form body, the server has no
				// client secret to present via basic auth.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// SetHTTPClient binds the HTTP client used for token exchanges. The
// transport calls this once at construction.
func (s *Session) SetHTTPClient(c *http.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.httpClient = c
}

// Authenticate performs the password-grant exchange. On success it fully
// replaces the stored credentials and persists the new token; on failure
// the prior state is left untouched.
func (s *Session) Authenticate(ctx context.Context, username, password string) error {
	s.mu.Lock()
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	s.mu.Unlock()

	token, err := s.oauth.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return &AuthExchangeError{Err: err}
	}

	s.mu.Lock()
	s.username = username
	s.password = password
	s.token = token.AccessToken
	s.generation++
	s.mu.Unlock()

	if err := s.store.SaveToken(token.AccessToken); err != nil {
		logger.L.Error("Failed to persist access token", "error", err)
	}
	logger.L.Info("Authenticated", "username", username)
	return nil
}

// Login authenticates and, on success, refreshes every cache so the read
// models reflect the new session.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if err := s.Authenticate(ctx, username, password); err != nil {
		return err
	}
	s.orch.UpdateAllData()
	s.orch.UpdateTransactions()
	return nil
}

// Restore loads a previously persisted token and marks the session
// authorized without validating it; an expired token is discovered lazily
// on the first failing call.
func (s *Session) Restore() bool {
	token, ok, err := s.store.LoadToken()
	if err != nil {
		logger.L.Error("Failed to read persisted token", "error", err)
		return false
	}
	if !ok {
		return false
	}
	s.mu.Lock()
	s.token = token
	s.generation++
	s.mu.Unlock()
	return true
}

// Clear wipes the credentials from memory and durable storage. A non-empty
// reason is surfaced as an alert before the session flips to
// unauthenticated, then every cache is reset through the orchestrator.
func (s *Session) Clear(reason string) {
	if reason != "" {
		// Raise the alert while the sink is still enabled.
		s.sink.Add(reason)
	}

	s.mu.Lock()
	s.username = ""
	s.password = ""
	s.token = ""
	s.generation++
	s.mu.Unlock()

	if err := s.store.DeleteToken(); err != nil {
		logger.L.Error("Failed to delete persisted token", "error", err)
	}
	s.orch.UpdateAllData()
	s.orch.UpdateTransactions()
}

// Authorized reports whether a token is present. The state is derived, not
// stored separately.
func (s *Session) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Token returns the current access token, or empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Generation identifies the current token epoch. Recovery compares
// generations to avoid re-authenticating when a concurrent recovery
// already replaced the token.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Session) credentials() (username, password string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username, s.password, s.username != "" && s.password != ""
}
