package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

// TestCreateCheckinListRequiresProducts rejects a subset list without
// products before any upstream call.
func TestCreateCheckinListRequiresProducts(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodPost, "/v1/events/gala/checkin-lists", `{"name":"Main gate","all_products":false}`)
	c.SetParamNames("slug")
	c.SetParamValues("gala")

	if err := h.CreateCheckinList(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "limit_products") {
		t.Fatalf("expected limit_products error, got %s", rec.Body.String())
	}
	if calls := up.calls(); len(calls) != 0 {
		t.Fatalf("expected zero upstream calls, got %v", calls)
	}
}

// TestCreateCheckinListAllProductsDropsLimit ensures an all-products list
// never forwards a stale product subset.
func TestCreateCheckinListAllProductsDropsLimit(t *testing.T) {
	var body map[string]any
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":5,"name":"Main gate","all_products":true}`))
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodPost, "/v1/events/gala/checkin-lists",
		`{"name":"Main gate","all_products":true,"limit_products":[1,2]}`)
	c.SetParamNames("slug")
	c.SetParamValues("gala")

	if err := h.CreateCheckinList(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, present := body["limit_products"]; present {
		t.Fatalf("expected limit_products dropped, got %v", body)
	}
	if body["all_products"] != true {
		t.Fatalf("expected all_products true, got %v", body)
	}
}

// TestPerformCheckinPassthrough returns the upstream decision verbatim.
func TestPerformCheckinPassthrough(t *testing.T) {
	upstreamBody := `{"status":"ok","position":{"id":3,"attendee_name":"Ada"}}`
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(upstreamBody))
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodPost, "/v1/events/gala/checkin-lists/9/checkin", `{"secret":"s3cr3t"}`)
	c.SetParamNames("slug", "id")
	c.SetParamValues("gala", "9")

	if err := h.PerformCheckin(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.TrimSpace(rec.Body.String()) != upstreamBody {
		t.Fatalf("expected verbatim upstream body, got %s", rec.Body.String())
	}
}

// TestPerformCheckinRequiresSecret validates locally.
func TestPerformCheckinRequiresSecret(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call")
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodPost, "/v1/events/gala/checkin-lists/9/checkin", `{"secret":"   "}`)
	c.SetParamNames("slug", "id")
	c.SetParamValues("gala", "9")

	if err := h.PerformCheckin(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// TestCheckinListsEnrichment resolves limited products to names using the
// event's items.
func TestCheckinListsEnrichment(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/events/gala/"):
			_, _ = w.Write([]byte(`{"slug":"gala"}`))
		case strings.HasSuffix(r.URL.Path, "/checkinlists/"):
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":5,"name":"VIP gate","limit_products":[7,8]}]}`))
		case strings.HasSuffix(r.URL.Path, "/items/"):
			_, _ = w.Write([]byte(`{"count":1,"results":[{"id":7,"name":{"fr":"Pass VIP"}}]}`))
		default:
			t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	})
	h := newTestHandler(up)

	c, rec := newAuthedContext(http.MethodGet, "/v1/events/gala/checkin-lists", "")
	c.SetParamNames("slug")
	c.SetParamValues("gala")

	if err := h.CheckinLists(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Lists []struct {
			ProductNames []string `json:"product_names"`
		} `json:"checkin_lists"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(resp.Lists) != 1 {
		t.Fatalf("expected one list, got %+v", resp)
	}
	want := []string{"Pass VIP", "Unnamed ticket"}
	if len(resp.Lists[0].ProductNames) != 2 || resp.Lists[0].ProductNames[0] != want[0] || resp.Lists[0].ProductNames[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, resp.Lists[0].ProductNames)
	}
}
