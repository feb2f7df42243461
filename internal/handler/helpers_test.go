package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
)

// fakeUpstream is a scripted Pretix server: each request is recorded as
// "METHOD path" and answered by the registered responder.
type fakeUpstream struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []string
	respond  func(w http.ResponseWriter, r *http.Request)
}

func newFakeUpstream(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{respond: respond}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		f.respond(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// newTestHandler wires a PretixHandler against the fake upstream using the
// process-default credentials path (no credential store).
func newTestHandler(f *fakeUpstream) *PretixHandler {
	resolver := pretix.NewResolver(nil, pretix.Credentials{
		BaseURL:   f.srv.URL,
		APIKey:    "test-token",
		Organizer: "acme",
	})
	return NewPretixHandler(resolver, pretix.NewClient(f.srv.Client()))
}

// newAuthedContext builds an echo context carrying an authenticated
// operator identity, as the JWT middleware would.
func newAuthedContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))
	c.Set("role", "ADMIN")
	return c, rec
}
