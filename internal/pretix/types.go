// Package pretix talks to the upstream Pretix REST API: it resolves which
// credentials to use for an actor, performs the HTTP calls, and reshapes
// the responses for display (quota joining, order enrichment, download
// URLs).  Upstream payloads are decoded into explicit optional-field
// structs instead of open maps so shape drift from the upstream service
// fails visibly at the decode boundary.
package pretix

import (
	"encoding/json"
	"fmt"
)

// Credentials identify one upstream tenant: where to call, with which
// token, under which organizer.
type Credentials struct {
	BaseURL   string
	APIKey    string
	Organizer string
}

// LocalizedString is Pretix's language→text mapping, e.g. {"fr": "...", "en": "..."}.
type LocalizedString map[string]string

// Display returns the French variant, falling back to English, then to the
// given placeholder when the mapping has no usable text.
func (l LocalizedString) Display(placeholder string) string {
	if v := l["fr"]; v != "" {
		return v
	}
	if v := l["en"]; v != "" {
		return v
	}
	return placeholder
}

// Page is the upstream list envelope {"count": n, "results": [...]}.
type Page[T any] struct {
	Count   int    `json:"count,omitempty"`
	Results []T    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// Event is an upstream event, keyed by slug.  The same struct doubles as
// the creation payload; pointer fields distinguish "absent" from "false".
type Event struct {
	Name          LocalizedString `json:"name,omitempty"`
	Slug          string          `json:"slug,omitempty"`
	Live          *bool           `json:"live,omitempty"`
	Testmode      *bool           `json:"testmode,omitempty"`
	Currency      string          `json:"currency,omitempty"`
	DateFrom      string          `json:"date_from,omitempty"`
	DateTo        string          `json:"date_to,omitempty"`
	Location      LocalizedString `json:"location,omitempty"`
	HasSubevents  *bool           `json:"has_subevents,omitempty"`
	SalesChannels []string        `json:"sales_channels,omitempty"`
	Plugins       []string        `json:"plugins,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// EventPatch carries the fields a PATCH on an event may change.
// SalesChannels is a pointer so an empty set (shop disabled on every
// channel) still reaches the upstream instead of being dropped by
// omitempty.
type EventPatch struct {
	Live          *bool     `json:"live,omitempty"`
	SalesChannels *[]string `json:"sales_channels,omitempty"`
	Plugins       []string  `json:"plugins,omitempty"`
}

// EventSettings is the event-level settings payload.  TicketDownloadDate is
// sent explicitly as null ("available immediately"), hence no omitempty.
type EventSettings struct {
	TicketDownload        *bool    `json:"ticket_download,omitempty"`
	TicketDownloadDate    *string  `json:"ticket_download_date"`
	TicketDownloadAddons  *bool    `json:"ticket_download_addons,omitempty"`
	TicketDownloadPending *bool    `json:"ticket_download_pending,omitempty"`
	MailAttachTickets     *bool    `json:"mail_attach_tickets,omitempty"`
	WaitingListEnabled    *bool    `json:"waiting_list_enabled,omitempty"`
	WaitingListAuto       *bool    `json:"waiting_list_auto,omitempty"`
	WaitingListHours      *int     `json:"waiting_list_hours,omitempty"`
	Locales               []string `json:"locales,omitempty"`
	Error                 string   `json:"error,omitempty"`
}

// Quota is an upstream capacity limit shared by one or more items.
// Size nil means unlimited.
type Quota struct {
	ID    int64   `json:"id,omitempty"`
	Name  string  `json:"name,omitempty"`
	Size  *int64  `json:"size"`
	Items []int64 `json:"items,omitempty"`
	Error string  `json:"error,omitempty"`
}

// QuotaPayload creates a quota.  Size stays explicit so null (unlimited)
// reaches the upstream unchanged.
type QuotaPayload struct {
	Name  string  `json:"name"`
	Size  *int64  `json:"size"`
	Items []int64 `json:"items"`
}

// QuotaRef is the slimmed-down quota view attached to items for display.
type QuotaRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size *int64 `json:"size"`
}

// Item is a purchasable ticket type.  Quotas, QuotaSize and QuotaType are
// derived locally and never come from upstream.
type Item struct {
	ID            int64           `json:"id,omitempty"`
	Name          LocalizedString `json:"name,omitempty"`
	DefaultPrice  string          `json:"default_price,omitempty"`
	Active        *bool           `json:"active,omitempty"`
	Admission     *bool           `json:"admission,omitempty"`
	SalesChannels []string        `json:"sales_channels,omitempty"`

	Quotas    []QuotaRef `json:"quotas,omitempty"`
	QuotaSize *int64     `json:"quota_size,omitempty"`
	QuotaType string     `json:"quota_type,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// ItemPayload creates a ticket type with the dashboard's fixed flags.
type ItemPayload struct {
	Name             LocalizedString `json:"name"`
	DefaultPrice     float64         `json:"default_price"`
	Admission        bool            `json:"admission"`
	Active           bool            `json:"active"`
	SalesChannels    []string        `json:"sales_channels"`
	TaxRate          float64         `json:"tax_rate"`
	GenerateTickets  bool            `json:"generate_tickets"`
	ShowQuotaLeft    bool            `json:"show_quota_left"`
	AllowWaitinglist bool            `json:"allow_waitinglist"`
}

// ItemPatch carries the fields a ticket update may change.
type ItemPatch struct {
	Name         LocalizedString `json:"name,omitempty"`
	DefaultPrice *float64        `json:"default_price,omitempty"`
	Active       *bool           `json:"active,omitempty"`
	Admission    *bool           `json:"admission,omitempty"`
}

// ItemRef is a position's item reference.  Upstream it is a bare numeric
// id; after enrichment it carries the full item and marshals as the item
// object, mirroring how the dashboard replaces the reference in place.
type ItemRef struct {
	ID     int64
	Detail *Item
}

func (r ItemRef) IsZero() bool { return r.ID == 0 && r.Detail == nil }

func (r *ItemRef) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = ItemRef{}
		return nil
	}
	var id int64
	if err := json.Unmarshal(b, &id); err != nil {
		return fmt.Errorf("item reference: %w", err)
	}
	r.ID = id
	r.Detail = nil
	return nil
}

func (r ItemRef) MarshalJSON() ([]byte, error) {
	if r.Detail != nil {
		return json.Marshal(r.Detail)
	}
	return json.Marshal(r.ID)
}

// Position is one ticket within an order.  PDFTicket and TicketPageURL are
// derived locally.
type Position struct {
	ID           int64   `json:"id,omitempty"`
	PositionID   int64   `json:"positionid,omitempty"`
	Item         ItemRef `json:"item,omitzero"`
	ItemID       int64   `json:"item_id,omitempty"`
	Secret       string  `json:"secret,omitempty"`
	AttendeeName string  `json:"attendee_name,omitempty"`
	Price        string  `json:"price,omitempty"`

	PDFTicket     string `json:"pdf_ticket,omitempty"`
	TicketPageURL string `json:"ticket_page_url,omitempty"`
}

// Order is a purchase with its positions.  DownloadURL is derived locally.
type Order struct {
	Code      string     `json:"code,omitempty"`
	Status    string     `json:"status,omitempty"`
	Email     string     `json:"email,omitempty"`
	Datetime  string     `json:"datetime,omitempty"`
	Total     string     `json:"total,omitempty"`
	Positions []Position `json:"positions,omitempty"`

	DownloadURL string `json:"download_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CheckinList scopes check-ins to all products or an explicit subset.
// ProductNames is derived locally for subset lists.
type CheckinList struct {
	ID             int64   `json:"id,omitempty"`
	Name           string  `json:"name,omitempty"`
	AllProducts    *bool   `json:"all_products,omitempty"`
	LimitProducts  []int64 `json:"limit_products,omitempty"`
	IncludePending *bool   `json:"include_pending,omitempty"`
	PositionCount  *int64  `json:"position_count,omitempty"`
	CheckinCount   *int64  `json:"checkin_count,omitempty"`

	ProductNames []string `json:"product_names,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// CheckinListPayload creates a check-in list.
type CheckinListPayload struct {
	Name           string  `json:"name"`
	AllProducts    bool    `json:"all_products"`
	LimitProducts  []int64 `json:"limit_products,omitempty"`
	IncludePending bool    `json:"include_pending"`
}

// CheckinRequest is forwarded verbatim to the upstream check-in endpoint.
// The nonce is only sent when the client supplied one.
type CheckinRequest struct {
	Secret       string `json:"secret"`
	IgnoreUnpaid bool   `json:"ignore_unpaid"`
	Force        bool   `json:"force"`
	Nonce        string `json:"nonce,omitempty"`
}
