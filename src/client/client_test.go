package client

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/finsync/src/alerts"
)

const (
	testAlertTTL     = 30 * time.Second
	testAlertCleanup = time.Second
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	mu    sync.Mutex
	token string
}

func (m *memStore) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memStore) LoadToken() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.token != "", nil
}

func (m *memStore) DeleteToken() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

func (m *memStore) current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// hookCounters records orchestrator fan-out without touching the network.
type hookCounters struct {
	user, accounts, currencies, transactions atomic.Int32
}

func registerCounters(orch *Orchestrator) *hookCounters {
	c := &hookCounters{}
	orch.RegisterUser(func() { c.user.Add(1) })
	orch.RegisterAccounts(func() { c.accounts.Add(1) })
	orch.RegisterCurrencies(func() { c.currencies.Add(1) })
	orch.RegisterTransactions(func() { c.transactions.Add(1) })
	return c
}

type testStack struct {
	server    *httptest.Server
	store     *memStore
	sink      *alerts.Sink
	orch      *Orchestrator
	counters  *hookCounters
	session   *Session
	transport *Transport
}

func newTestStack(t *testing.T, handler http.Handler) *testStack {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	baseURL := server.URL + "/"
	store := &memStore{}
	sink := alerts.NewSink(testAlertTTL, testAlertCleanup)
	orch := NewOrchestrator()
	counters := registerCounters(orch)
	session := NewSession(baseURL, "finsync-web", store, sink, orch)
	sink.SetEnabledFunc(session.Authorized)
	transport := NewTransport(baseURL, session, sink, orch, 0)

	return &testStack{
		server:    server,
		store:     store,
		sink:      sink,
		orch:      orch,
		counters:  counters,
		session:   session,
		transport: transport,
	}
}

func newSinkForTest() *alerts.Sink {
	return alerts.NewSink(testAlertTTL, testAlertCleanup)
}

func writeToken(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer"}`, token)
}

func (s *testStack) alertMessages(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, alert := range s.sink.Alerts() {
		out = append(out, alert.Message)
	}
	return out
}

func requireAlertContaining(t *testing.T, s *testStack, substr string) {
	t.Helper()
	for _, message := range s.alertMessages(t) {
		if strings.Contains(message, substr) {
			return
		}
	}
	require.Failf(t, "alert not found", "no alert containing %q in %v", substr, s.alertMessages(t))
}
