package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/username/finsync/src/client"
)

// fakeTransport scripts responses per path and records every request.
type fakeTransport struct {
	mu      sync.Mutex
	handler func(method, path string, body []byte) (*client.Response, error)
	paths   []string
}

func (f *fakeTransport) call(method, path string, body []byte) (*client.Response, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return f.handler(method, path, body)
}

func (f *fakeTransport) Get(ctx context.Context, path string, headers http.Header) (*client.Response, error) {
	return f.call(http.MethodGet, path, nil)
}

func (f *fakeTransport) PostJSON(ctx context.Context, path string, body any, headers http.Header) (*client.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return f.call(http.MethodPost, path, data)
}

func (f *fakeTransport) PostForm(ctx context.Context, path string, form url.Values, headers http.Header) (*client.Response, error) {
	return f.call(http.MethodPost, path, []byte(form.Encode()))
}

func (f *fakeTransport) Post(ctx context.Context, path, contentType string, body []byte, headers http.Header) (*client.Response, error) {
	return f.call(http.MethodPost, path, body)
}

func (f *fakeTransport) requested(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.paths {
		if p == path {
			count++
		}
	}
	return count
}

func okJSON(v any) (*client.Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &client.Response{StatusCode: http.StatusOK, Body: data}, nil
}

func okRaw(body string) (*client.Response, error) {
	return &client.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

type fakeSession struct {
	mu         sync.Mutex
	authorized bool
}

func (s *fakeSession) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

func (s *fakeSession) setAuthorized(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authorized = v
}

// newCacheStack wires the account and transaction caches against a fake
// transport, the way main wires the real ones.
func newCacheStack(t *testing.T, handler func(method, path string, body []byte) (*client.Response, error)) (*TransactionsCache, *AccountsCache, *fakeTransport, *fakeSession) {
	t.Helper()
	transport := &fakeTransport{handler: handler}
	session := &fakeSession{authorized: true}
	orch := client.NewOrchestrator()
	currencies := NewCurrencyCache(transport, session, orch)
	accounts := NewAccountsCache(transport, session, orch, currencies)
	transactions := NewTransactionsCache(transport, session, orch, accounts)
	orch.RegisterUser(func() {})
	return transactions, accounts, transport, session
}

func unhandled(method, path string) (*client.Response, error) {
	return nil, fmt.Errorf("unhandled request %s %s", method, path)
}
