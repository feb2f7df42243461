package pretix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// UpstreamError tags every failure at the gateway boundary: transport
// errors, non-2xx statuses and undecodable bodies all surface as an
// UpstreamError with a human-readable message, never as a panic or a raw
// transport error escaping to handlers.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

func upstreamErrf(format string, args ...any) *UpstreamError {
	return &UpstreamError{Message: fmt.Sprintf(format, args...)}
}

// Client performs authenticated calls against the Pretix REST API.  One
// best-effort synchronous call per invocation: no retries, no rate
// limiting, no pagination.
type Client struct {
	hc *http.Client
}

// NewClient wraps the given *http.Client; pass http.DefaultClient to keep
// the transport's default timeout behavior.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{hc: hc}
}

// joinURL concatenates the resolved base URL with a relative API path.
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + path
}

// do builds, sends and reads one upstream request.  Every call is logged
// with method, URL and actor identity before sending and with the status
// and actor identity after receiving.
func (c *Client) do(ctx context.Context, creds Credentials, actor uint64, method, path string, payload any) ([]byte, error) {
	url := joinURL(creds.BaseURL, path)

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, upstreamErrf("encode request payload: %v", err)
		}
		body = bytes.NewReader(buf)
	}

	log.Printf("pretix api request: method=%s url=%s user_id=%d", method, url, actor)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		log.Printf("pretix api error: method=%s url=%s user_id=%d: %v", method, url, actor, err)
		return nil, upstreamErrf("build upstream request: %v", err)
	}
	req.Header.Set("Authorization", "Token "+creds.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Printf("pretix api error: method=%s url=%s user_id=%d: %v", method, url, actor, err)
		return nil, upstreamErrf("%v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("pretix api error: method=%s url=%s user_id=%d: %v", method, url, actor, err)
		return nil, upstreamErrf("read upstream response: %v", err)
	}

	log.Printf("pretix api response: status=%d user_id=%d", resp.StatusCode, actor)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamErrf("upstream status %d: %s", resp.StatusCode, snippet(respBody))
	}
	return respBody, nil
}

// snippet keeps upstream error bodies readable in messages and logs.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// decode unmarshals an upstream body into T.  An empty body (204) yields
// the zero value; an undecodable body is an error-tagged result.
func decode[T any](body []byte) (T, error) {
	var v T
	if len(body) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, upstreamErrf("undecodable upstream response: %v", err)
	}
	return v, nil
}

func eventsPath(creds Credentials) string {
	return "organizers/" + creds.Organizer + "/events/"
}

func eventPath(creds Credentials, slug string) string {
	return eventsPath(creds) + slug + "/"
}

// ListEvents returns all events of the organizer.
func (c *Client) ListEvents(ctx context.Context, creds Credentials, actor uint64) (Page[Event], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventsPath(creds), nil)
	if err != nil {
		return Page[Event]{}, err
	}
	return decode[Page[Event]](b)
}

// GetEvent returns one event by slug.
func (c *Client) GetEvent(ctx context.Context, creds Credentials, actor uint64, slug string) (Event, error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug), nil)
	if err != nil {
		return Event{}, err
	}
	return decode[Event](b)
}

// CreateEvent creates an event and returns the upstream representation.
func (c *Client) CreateEvent(ctx context.Context, creds Credentials, actor uint64, payload Event) (Event, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPost, eventsPath(creds), payload)
	if err != nil {
		return Event{}, err
	}
	return decode[Event](b)
}

// UpdateEvent patches an event.
func (c *Client) UpdateEvent(ctx context.Context, creds Credentials, actor uint64, slug string, patch EventPatch) (Event, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPatch, eventPath(creds, slug), patch)
	if err != nil {
		return Event{}, err
	}
	return decode[Event](b)
}

// UpdateEventSettings patches event-level settings.
func (c *Client) UpdateEventSettings(ctx context.Context, creds Credentials, actor uint64, slug string, settings EventSettings) (EventSettings, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPatch, eventPath(creds, slug)+"settings/", settings)
	if err != nil {
		return EventSettings{}, err
	}
	return decode[EventSettings](b)
}

// ListItems returns all ticket types of an event.
func (c *Client) ListItems(ctx context.Context, creds Credentials, actor uint64, slug string) (Page[Item], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"items/", nil)
	if err != nil {
		return Page[Item]{}, err
	}
	return decode[Page[Item]](b)
}

// CreateItem creates a ticket type.
func (c *Client) CreateItem(ctx context.Context, creds Credentials, actor uint64, slug string, payload ItemPayload) (Item, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPost, eventPath(creds, slug)+"items/", payload)
	if err != nil {
		return Item{}, err
	}
	return decode[Item](b)
}

// UpdateItem patches a ticket type.
func (c *Client) UpdateItem(ctx context.Context, creds Credentials, actor uint64, slug string, itemID int64, patch ItemPatch) (Item, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPatch, fmt.Sprintf("%sitems/%d/", eventPath(creds, slug), itemID), patch)
	if err != nil {
		return Item{}, err
	}
	return decode[Item](b)
}

// DeleteItem deletes a ticket type.
func (c *Client) DeleteItem(ctx context.Context, creds Credentials, actor uint64, slug string, itemID int64) error {
	_, err := c.do(ctx, creds, actor, http.MethodDelete, fmt.Sprintf("%sitems/%d/", eventPath(creds, slug), itemID), nil)
	return err
}

// ListQuotas returns all quotas of an event.
func (c *Client) ListQuotas(ctx context.Context, creds Credentials, actor uint64, slug string) (Page[Quota], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"quotas/", nil)
	if err != nil {
		return Page[Quota]{}, err
	}
	return decode[Page[Quota]](b)
}

// CreateQuota creates a quota.
func (c *Client) CreateQuota(ctx context.Context, creds Credentials, actor uint64, slug string, payload QuotaPayload) (Quota, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPost, eventPath(creds, slug)+"quotas/", payload)
	if err != nil {
		return Quota{}, err
	}
	return decode[Quota](b)
}

// UpdateQuota patches a quota.
func (c *Client) UpdateQuota(ctx context.Context, creds Credentials, actor uint64, slug string, quotaID int64, payload QuotaPayload) (Quota, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPatch, fmt.Sprintf("%squotas/%d/", eventPath(creds, slug), quotaID), payload)
	if err != nil {
		return Quota{}, err
	}
	return decode[Quota](b)
}

// DeleteQuota deletes a quota.
func (c *Client) DeleteQuota(ctx context.Context, creds Credentials, actor uint64, slug string, quotaID int64) error {
	_, err := c.do(ctx, creds, actor, http.MethodDelete, fmt.Sprintf("%squotas/%d/", eventPath(creds, slug), quotaID), nil)
	return err
}

// ListOrders returns all orders of an event.
func (c *Client) ListOrders(ctx context.Context, creds Credentials, actor uint64, slug string) (Page[Order], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"orders/", nil)
	if err != nil {
		return Page[Order]{}, err
	}
	return decode[Page[Order]](b)
}

// GetOrder returns one order by code.
func (c *Client) GetOrder(ctx context.Context, creds Credentials, actor uint64, slug, code string) (Order, error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"orders/"+code+"/", nil)
	if err != nil {
		return Order{}, err
	}
	return decode[Order](b)
}

// ListOrderPositions returns the positions of one order.
func (c *Client) ListOrderPositions(ctx context.Context, creds Credentials, actor uint64, slug, code string) (Page[Position], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"orders/"+code+"/positions/", nil)
	if err != nil {
		return Page[Position]{}, err
	}
	return decode[Page[Position]](b)
}

// ListCheckinLists returns all check-in lists of an event.
func (c *Client) ListCheckinLists(ctx context.Context, creds Credentials, actor uint64, slug string) (Page[CheckinList], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, eventPath(creds, slug)+"checkinlists/", nil)
	if err != nil {
		return Page[CheckinList]{}, err
	}
	return decode[Page[CheckinList]](b)
}

// GetCheckinList returns one check-in list.
func (c *Client) GetCheckinList(ctx context.Context, creds Credentials, actor uint64, slug string, listID int64) (CheckinList, error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, fmt.Sprintf("%scheckinlists/%d/", eventPath(creds, slug), listID), nil)
	if err != nil {
		return CheckinList{}, err
	}
	return decode[CheckinList](b)
}

// CreateCheckinList creates a check-in list.
func (c *Client) CreateCheckinList(ctx context.Context, creds Credentials, actor uint64, slug string, payload CheckinListPayload) (CheckinList, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPost, eventPath(creds, slug)+"checkinlists/", payload)
	if err != nil {
		return CheckinList{}, err
	}
	return decode[CheckinList](b)
}

// ListCheckinPositions returns the positions known to a check-in list,
// including their check-in state.
func (c *Client) ListCheckinPositions(ctx context.Context, creds Credentials, actor uint64, slug string, listID int64) (Page[Position], error) {
	b, err := c.do(ctx, creds, actor, http.MethodGet, fmt.Sprintf("%scheckinlists/%d/positions/", eventPath(creds, slug), listID), nil)
	if err != nil {
		return Page[Position]{}, err
	}
	return decode[Page[Position]](b)
}

// PerformCheckin forwards a check-in attempt and returns the upstream
// decision payload verbatim; redemption state lives entirely upstream.
func (c *Client) PerformCheckin(ctx context.Context, creds Credentials, actor uint64, slug string, listID int64, req CheckinRequest) (json.RawMessage, error) {
	b, err := c.do(ctx, creds, actor, http.MethodPost, fmt.Sprintf("%scheckinlists/%d/checkins/", eventPath(creds, slug), listID), req)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		b = []byte("{}")
	}
	return json.RawMessage(b), nil
}

// DownloadTicketPDF fetches the ticket PDF for a whole order or, when
// positionID is non-nil, for a single position.
func (c *Client) DownloadTicketPDF(ctx context.Context, creds Credentials, actor uint64, slug, code string, positionID *int64) ([]byte, error) {
	path := eventPath(creds, slug) + "orders/" + code + "/download/pdf/"
	if positionID != nil {
		path = fmt.Sprintf("%sorderpositions/%d/download/pdf/", eventPath(creds, slug), *positionID)
	}
	url := joinURL(creds.BaseURL, path)

	log.Printf("pretix api request: method=GET url=%s user_id=%d", url, actor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, upstreamErrf("build upstream request: %v", err)
	}
	req.Header.Set("Authorization", "Token "+creds.APIKey)
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.hc.Do(req)
	if err != nil {
		log.Printf("pretix api error: method=GET url=%s user_id=%d: %v", url, actor, err)
		return nil, upstreamErrf("%v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstreamErrf("read upstream response: %v", err)
	}

	log.Printf("pretix api response: status=%d user_id=%d", resp.StatusCode, actor)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, upstreamErrf("upstream status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}
