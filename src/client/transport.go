package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"sync/atomic"

	"github.com/username/finsync/src/alerts"
	"github.com/username/finsync/src/logger"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// Requests to the token endpoint are sent with caller headers verbatim:
// no token exists yet for that call.
var tokenPathPattern = regexp.MustCompile(`^oauth/token$`)

// Response is the decoded-enough result of a request: status plus raw body.
// Callers unmarshal the body into their own types.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport issues requests against the service root, injecting the
// session's authorization header and tracking the number of in-flight
// requests. Authorization failures are routed through recovery; any other
// failure raises an alert and triggers a full resynchronization pass.
type Transport struct {
	baseURL string
	session *Session
	sink    *alerts.Sink
	orch    *Orchestrator
	rec     *recovery
	limiter *rate.Limiter
	client  *http.Client
	pending atomic.Int64
}

// NewTransport wires a transport for the given service root. The root must
// end with a slash. requestsPerSecond > 0 enables a client-side throttle.
func NewTransport(baseURL string, session *Session, sink *alerts.Sink, orch *Orchestrator, requestsPerSecond float64) *Transport {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		if requestsPerSecond > 1 {
			burst = int(requestsPerSecond)
		}
	}

	t := &Transport{
		baseURL: baseURL,
		session: session,
		sink:    sink,
		orch:    orch,
		rec:     &recovery{session: session},
		limiter: rate.NewLimiter(limit, burst),
	}
	t.client = &http.Client{
		Jar:       jar,
		Transport: &countingTransport{pending: &t.pending, base: http.DefaultTransport},
	}
	// Token exchanges go through the same counting client so the busy
	// indicator also covers authentication calls.
	session.SetHTTPClient(t.client)
	return t
}

// countingTransport increments the pending counter before each dispatch and
// decrements it exactly once per completed request, success or failure.
type countingTransport struct {
	pending *atomic.Int64
	base    http.RoundTripper
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.pending.Add(1)
	defer c.pending.Add(-1)
	return c.base.RoundTrip(req)
}

// Pending returns the number of in-flight requests.
func (t *Transport) Pending() int {
	return int(t.pending.Load())
}

// IsBusy reports whether any request is in flight, for UI loading state.
func (t *Transport) IsBusy() bool {
	return t.pending.Load() > 0
}

// HTTPClient exposes the counting client, e.g. for token exchanges.
func (t *Transport) HTTPClient() *http.Client {
	return t.client
}

// Get issues a GET request relative to the service root.
func (t *Transport) Get(ctx context.Context, path string, headers http.Header) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, "", nil, headers, false)
}

// PostJSON issues a POST request with a JSON-encoded body.
func (t *Transport) PostJSON(ctx context.Context, path string, body any, headers http.Header) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return t.do(ctx, http.MethodPost, path, "application/json", data, headers, false)
}

// PostForm issues a POST request with a form-encoded body.
func (t *Transport) PostForm(ctx context.Context, path string, form url.Values, headers http.Header) (*Response, error) {
	return t.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", []byte(form.Encode()), headers, false)
}

// Post issues a POST request with an arbitrary body, e.g. multipart uploads.
func (t *Transport) Post(ctx context.Context, path, contentType string, body []byte, headers http.Header) (*Response, error) {
	return t.do(ctx, http.MethodPost, path, contentType, body, headers, false)
}

func (t *Transport) do(ctx context.Context, method, path, contentType string, body []byte, headers http.Header, replayed bool) (*Response, error) {
	// The token generation backing this request; recovery uses it to
	// detect that another recovery already refreshed the token.
	generation := t.session.Generation()

	resp, err := t.dispatch(ctx, method, path, contentType, body, headers)
	if err != nil {
		t.reportFailure(fmt.Sprintf("HTTP error: %v", err))
		return nil, fmt.Errorf("request %s %s failed: %w", method, path, err)
	}
	if resp.ok() {
		if replayed {
			// State may have drifted while authorization was broken.
			t.resync()
		}
		return resp, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Body: resp.Body}
	if apiErr.Unauthorized() && !replayed && !tokenPathPattern.MatchString(path) {
		if rerr := t.rec.fix(ctx, generation); rerr != nil {
			return nil, apiErr
		}
		return t.do(ctx, method, path, contentType, body, headers, true)
	}

	t.reportFailure(apiErr.Error())
	return nil, apiErr
}

// dispatch performs one physical request with freshly merged headers. The
// authorization header is applied after caller headers so a stale
// caller-set value can never shadow the current session token.
func (t *Transport) dispatch(ctx context.Context, method, path, contentType string, body []byte, headers http.Header) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !tokenPathPattern.MatchString(path) {
		if token := t.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (t *Transport) reportFailure(message string) {
	logger.L.Warn("Request failed", "error", message)
	t.sink.Add(message)
	t.resync()
}

// resync triggers a full refresh pass unless one is already executing;
// without the guard a failing refresh would fan out into another full
// refresh indefinitely.
func (t *Transport) resync() {
	if !t.orch.Refreshing() {
		t.orch.UpdateAllData()
	}
}
