package pretix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testCreds(baseURL string) Credentials {
	return Credentials{BaseURL: baseURL, APIKey: "tok123", Organizer: "acme"}
}

// TestClientSendsTokenAuth verifies the upstream authentication scheme and
// the request path built from the resolved credentials.
func TestClientSendsTokenAuth(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(Page[Event]{Count: 0, Results: []Event{}})
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	if _, err := c.ListEvents(context.Background(), testCreds(srv.URL), 1); err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if gotAuth != "Token tok123" {
		t.Fatalf("expected Token auth header, got %q", gotAuth)
	}
	if gotPath != "/organizers/acme/events/" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
}

// TestClientDecodesListEnvelope checks that a successful list response is
// passed through unmodified.
func TestClientDecodesListEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count":2,"results":[{"slug":"a"},{"slug":"b"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	page, err := c.ListEvents(context.Background(), testCreds(srv.URL), 1)
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if page.Count != 2 || len(page.Results) != 2 || page.Results[1].Slug != "b" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

// TestClientWrapsUpstreamStatus ensures a non-2xx response surfaces as an
// UpstreamError carrying the status and a body snippet.
func TestClientWrapsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetEvent(context.Background(), testCreds(srv.URL), 1, "gala")
	if err == nil {
		t.Fatalf("expected an error")
	}
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if !strings.Contains(ue.Message, "403") || !strings.Contains(ue.Message, "Invalid token.") {
		t.Fatalf("unexpected message %q", ue.Message)
	}
}

// TestClientWrapsTransportError ensures an unreachable upstream surfaces
// as an UpstreamError, not a raw transport error.
func TestClientWrapsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections from now on

	c := NewClient(http.DefaultClient)
	_, err := c.ListEvents(context.Background(), testCreds(srv.URL), 1)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T (%v)", err, err)
	}
}

// TestClientWrapsUndecodableBody ensures a 200 with a broken body is an
// error-tagged result instead of a zero-value success.
func TestClientWrapsUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	_, err := c.GetEvent(context.Background(), testCreds(srv.URL), 1, "gala")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T (%v)", err, err)
	}
	if !strings.Contains(ue.Message, "undecodable") {
		t.Fatalf("unexpected message %q", ue.Message)
	}
}

// TestPerformCheckinNonceHandling verifies the nonce field is forwarded
// when set and omitted entirely when empty.
func TestPerformCheckinNonceHandling(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = nil
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	creds := testCreds(srv.URL)

	if _, err := c.PerformCheckin(context.Background(), creds, 1, "gala", 9, CheckinRequest{Secret: "s"}); err != nil {
		t.Fatalf("PerformCheckin returned error: %v", err)
	}
	if _, present := body["nonce"]; present {
		t.Fatalf("empty nonce must be omitted, body %v", body)
	}
	if body["secret"] != "s" || body["force"] != false || body["ignore_unpaid"] != false {
		t.Fatalf("unexpected forwarded body %v", body)
	}

	if _, err := c.PerformCheckin(context.Background(), creds, 1, "gala", 9, CheckinRequest{Secret: "s", Nonce: "n1"}); err != nil {
		t.Fatalf("PerformCheckin returned error: %v", err)
	}
	if body["nonce"] != "n1" {
		t.Fatalf("expected nonce forwarded, body %v", body)
	}
}

// TestPerformCheckinEmptyBody ensures a bodyless upstream success still
// yields a valid JSON document.
func TestPerformCheckinEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	raw, err := c.PerformCheckin(context.Background(), testCreds(srv.URL), 1, "gala", 9, CheckinRequest{Secret: "s"})
	if err != nil {
		t.Fatalf("PerformCheckin returned error: %v", err)
	}
	if string(raw) != "{}" {
		t.Fatalf("expected empty object, got %q", string(raw))
	}
}

// TestDownloadTicketPDFPaths checks the order-level and position-level
// download paths and the PDF accept header.
func TestDownloadTicketPDFPaths(t *testing.T) {
	var gotPath, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	creds := testCreds(srv.URL)

	pdf, err := c.DownloadTicketPDF(context.Background(), creds, 1, "gala", "AB3CD", nil)
	if err != nil {
		t.Fatalf("DownloadTicketPDF returned error: %v", err)
	}
	if string(pdf) != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", pdf)
	}
	if gotPath != "/organizers/acme/events/gala/orders/AB3CD/download/pdf/" {
		t.Fatalf("unexpected order path %q", gotPath)
	}
	if gotAccept != "application/pdf" {
		t.Fatalf("expected pdf accept header, got %q", gotAccept)
	}

	pos := int64(42)
	if _, err := c.DownloadTicketPDF(context.Background(), creds, 1, "gala", "AB3CD", &pos); err != nil {
		t.Fatalf("DownloadTicketPDF returned error: %v", err)
	}
	if gotPath != "/organizers/acme/events/gala/orderpositions/42/download/pdf/" {
		t.Fatalf("unexpected position path %q", gotPath)
	}
}

// TestJoinURL covers base URLs with and without a trailing slash.
func TestJoinURL(t *testing.T) {
	if got := joinURL("https://x/api/v1/", "organizers/a/"); got != "https://x/api/v1/organizers/a/" {
		t.Fatalf("unexpected url %q", got)
	}
	if got := joinURL("https://x/api/v1", "organizers/a/"); got != "https://x/api/v1/organizers/a/" {
		t.Fatalf("unexpected url %q", got)
	}
}
