package pretix

// Enrichment is pure data reshaping over already-fetched payloads: joining
// quotas to items, items to order positions, and computing derived URLs.
// It is additive, deterministic and never calls back into the gateway.

import (
	"fmt"
	"slices"
	"strings"
)

// WebChannel is the sales channel that makes an event purchasable in the
// online shop.
const WebChannel = "web"

// unnamedTicket is shown when a product has no usable localized name.
const unnamedTicket = "Unnamed ticket"

// ToggleWebChannel computes the sales-channel set that results from
// enabling or disabling the online shop.  When the set already matches the
// requested state it returns the input unchanged with changed=false so the
// caller can skip the redundant upstream write.
func ToggleWebChannel(channels []string, active bool) (result []string, changed bool) {
	has := slices.Contains(channels, WebChannel)
	if has == active {
		return channels, false
	}
	if active {
		result = make([]string, 0, len(channels)+1)
		result = append(result, channels...)
		result = append(result, WebChannel)
		return result, true
	}
	result = make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch != WebChannel {
			result = append(result, ch)
		}
	}
	return result, true
}

// AttachQuotas joins quotas onto each item and derives the effective quota
// size.  An item matched by no quota is unlimited; any matching quota with
// a null size makes it unlimited; otherwise the minimum size wins and the
// item is limited.  The most restrictive quota determines what operators
// see as remaining capacity, so the tie-break order matters.
func AttachQuotas(items []Item, quotas []Quota) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		var refs []QuotaRef
		for _, q := range quotas {
			if slices.Contains(q.Items, item.ID) {
				refs = append(refs, QuotaRef{ID: q.ID, Name: q.Name, Size: q.Size})
			}
		}
		item.Quotas = refs
		item.QuotaType = "unlimited"
		item.QuotaSize = nil
		if len(refs) > 0 {
			hasUnlimited := false
			var minSize *int64
			for _, ref := range refs {
				if ref.Size == nil {
					hasUnlimited = true
					continue
				}
				if minSize == nil || *ref.Size < *minSize {
					s := *ref.Size
					minSize = &s
				}
			}
			if !hasUnlimited && minSize != nil {
				item.QuotaSize = minSize
				item.QuotaType = "limited"
			}
		}
		out[i] = item
	}
	return out
}

// IndexItems builds an id→item lookup table.
func IndexItems(items []Item) map[int64]Item {
	byID := make(map[int64]Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID
}

// OrderDownloadURL is the "download all tickets" PDF endpoint of an order.
func OrderDownloadURL(creds Credentials, slug, code string) string {
	return joinURL(creds.BaseURL, eventPath(creds, slug)+"orders/"+code+"/download/pdf/")
}

// PositionDownloadURL is the single-ticket PDF endpoint of a position.
func PositionDownloadURL(creds Credentials, slug string, positionID int64) string {
	return joinURL(creds.BaseURL, fmt.Sprintf("%sorderpositions/%d/download/pdf/", eventPath(creds, slug), positionID))
}

// TicketPageURL is the public ticket-viewing page for a position secret.
// It lives on the shop host, so the API path suffix is stripped from the
// base URL before substituting the organizer, event and secret.
func TicketPageURL(creds Credentials, slug, secret string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(creds.BaseURL, "/"), "/api/v1")
	return base + "/" + creds.Organizer + "/" + slug + "/tickets/" + secret + "/"
}

// EnrichOrder attaches item details and derived download URLs to an order.
// The item reference of each position is replaced with the full item
// looked up by id (preferring `item`, falling back to `item_id`); original
// upstream fields are preserved, only derived fields are added.
func EnrichOrder(o Order, itemsByID map[int64]Item, creds Credentials, slug string) Order {
	o.DownloadURL = OrderDownloadURL(creds, slug, o.Code)

	for i := range o.Positions {
		p := &o.Positions[i]

		itemID := p.Item.ID
		if itemID == 0 {
			itemID = p.ItemID
		}
		if it, ok := itemsByID[itemID]; ok {
			detail := it
			p.Item = ItemRef{ID: itemID, Detail: &detail}
		}

		posID := p.ID
		if posID == 0 {
			posID = p.PositionID
		}
		if posID != 0 {
			p.PDFTicket = PositionDownloadURL(creds, slug, posID)
		}

		if p.Secret != "" {
			p.TicketPageURL = TicketPageURL(creds, slug, p.Secret)
		}
	}
	return o
}

// AttachProductNames resolves the limited product ids of each check-in
// list to display names: French first, then English, then a placeholder
// for unnamed or unknown items.  Lists covering all products are left
// untouched.
func AttachProductNames(lists []CheckinList, itemsByID map[int64]Item) []CheckinList {
	out := make([]CheckinList, len(lists))
	for i, list := range lists {
		if len(list.LimitProducts) > 0 {
			names := make([]string, 0, len(list.LimitProducts))
			for _, productID := range list.LimitProducts {
				it, ok := itemsByID[productID]
				if !ok {
					names = append(names, unnamedTicket)
					continue
				}
				names = append(names, it.Name.Display(unnamedTicket))
			}
			list.ProductNames = names
		}
		out[i] = list
	}
	return out
}
