package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

// TestDownloadTicketFilename streams the PDF inline with the derived
// filename for whole-order and single-position downloads.
func TestDownloadTicketFilename(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodGet, "/v1/events/gala/orders/AB3CD/download", "")
	c.SetParamNames("slug", "code")
	c.SetParamValues("gala", "AB3CD")

	if err := h.DownloadTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `inline`) || !strings.Contains(cd, "ticket-gala-AB3CD.pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	c, rec = newAuthedContext(http.MethodGet, "/v1/events/gala/orders/AB3CD/download?position=42", "")
	c.SetParamNames("slug", "code")
	c.SetParamValues("gala", "AB3CD")

	if err := h.DownloadTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "ticket-gala-AB3CD-42.pdf") {
		t.Fatalf("unexpected disposition %q", cd)
	}
}

// TestDownloadTicketRejectsBadCode validates the order code locally.
func TestDownloadTicketRejectsBadCode(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call")
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodGet, "/v1/events/gala/orders/ab-3/download", "")
	c.SetParamNames("slug", "code")
	c.SetParamValues("gala", "ab-3")

	if err := h.DownloadTicket(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestOrderDetailsFetchesMissingPositions falls back to the positions
// endpoint when the order representation has none embedded, then enriches
// them with item details and download URLs.
func TestOrderDetailsFetchesMissingPositions(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/events/gala/"):
			_, _ = w.Write([]byte(`{"slug":"gala"}`))
		case strings.HasSuffix(r.URL.Path, "/orders/AB3CD/"):
			_, _ = w.Write([]byte(`{"code":"AB3CD","status":"p"}`))
		case strings.HasSuffix(r.URL.Path, "/orders/AB3CD/positions/"):
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":55,"item":7,"secret":"s3"}]}`))
		case strings.HasSuffix(r.URL.Path, "/items/"):
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":7,"name":{"fr":"Entrée"}}]}`))
		default:
			t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodGet, "/v1/events/gala/orders/AB3CD", "")
	c.SetParamNames("slug", "code")
	c.SetParamValues("gala", "AB3CD")

	if err := h.OrderDetails(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Order struct {
			Code        string `json:"code"`
			DownloadURL string `json:"download_url"`
			Positions   []struct {
				Item struct {
					ID int64 `json:"id"`
				} `json:"item"`
				PDFTicket     string `json:"pdf_ticket"`
				TicketPageURL string `json:"ticket_page_url"`
			} `json:"positions"`
		} `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Order.Code != "AB3CD" || resp.Order.DownloadURL == "" {
		t.Fatalf("unexpected order %+v", resp.Order)
	}
	if len(resp.Order.Positions) != 1 {
		t.Fatalf("expected one position, got %+v", resp.Order.Positions)
	}
	p := resp.Order.Positions[0]
	if p.Item.ID != 7 {
		t.Fatalf("expected enriched item 7, got %+v", p.Item)
	}
	if !strings.Contains(p.PDFTicket, "/orderpositions/55/download/pdf/") {
		t.Fatalf("unexpected pdf url %q", p.PDFTicket)
	}
	if !strings.Contains(p.TicketPageURL, "/acme/gala/tickets/s3/") {
		t.Fatalf("unexpected ticket page url %q", p.TicketPageURL)
	}
}

// TestListOrdersDegradesOnFailure keeps the page renderable when the
// orders endpoint fails but the event loads.
func TestListOrdersDegradesOnFailure(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/events/gala/") {
			_, _ = w.Write([]byte(`{"slug":"gala"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodGet, "/v1/events/gala/orders", "")
	c.SetParamNames("slug")
	c.SetParamValues("gala")

	if err := h.ListOrders(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Orders []any  `json:"orders"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Orders) != 0 || resp.Error == "" {
		t.Fatalf("expected empty orders with error marker, got %+v", resp)
	}
}
