package collections

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citewatch/citewatch/pkg/backoff/backofftest"
	"github.com/citewatch/citewatch/pkg/logger"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type reply struct {
	status      int
	body        string
	contentType string
}

func jsonReply(status int, body string) reply {
	return reply{status: status, body: body, contentType: "application/json"}
}

func textReply(status int, body string) reply {
	return reply{status: status, body: body, contentType: "text/html"}
}

// fakeBackend serves scripted replies per route. The last reply of a route repeats.
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string][]reply
	requests []recordedRequest
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{routes: make(map[string][]reply)}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) on(method, path string, replies ...reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[method+" "+path] = replies
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.EscapedPath()
	b.mu.Lock()
	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	replies := b.routes[key]
	var rep reply
	switch len(replies) {
	case 0:
		rep = jsonReply(http.StatusNotFound, `{"detail":"route not scripted"}`)
	case 1:
		rep = replies[0]
	default:
		rep = replies[0]
		b.routes[key] = replies[1:]
	}
	b.mu.Unlock()
	if rep.contentType != "" {
		w.Header().Set("Content-Type", rep.contentType)
	}
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (b *fakeBackend) all() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]recordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *fakeBackend) count(method, path string) int {
	n := 0
	for _, req := range b.all() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

func (b *fakeBackend) last() recordedRequest {
	reqs := b.all()
	if len(reqs) == 0 {
		return recordedRequest{}
	}
	return reqs[len(reqs)-1]
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) (*Client, *backofftest.ManualClock) {
	t.Helper()
	clk := backofftest.NewManualClock()
	cfg := Config{
		BaseURL: baseURL,
		Tokens:  StaticToken("test-token"),
		Clock:   clk,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := New(cfg)
	require.NoError(t, err)
	return client, clk
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	return logger.ContextWithLogger(t.Context(), logger.NewForTests())
}
