package handler

import (
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
	"github.com/billetterie/pretix-admin/internal/queue"
)

// slugRe matches upstream event slugs.  Validated locally so a malformed
// slug never produces an upstream call.
var slugRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// requiredPlugins is enabled on every event the dashboard creates and
// restored by EnablePDF when an event has lost any of them.
var requiredPlugins = []string{
	"pretix.plugins.sendmail",
	"pretix.plugins.statistics",
	"pretix.plugins.ticketoutputpdf",
}

func validSlug(slug string) bool {
	return slug != "" && len(slug) <= 190 && slugRe.MatchString(slug)
}

// parseEventDate accepts a bare date or a full RFC 3339 timestamp.
func parseEventDate(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ListEvents returns all events of the resolved organizer.  Upstream
// failures degrade to an empty list with an error marker so the dashboard
// can still render.
func (h *PretixHandler) ListEvents(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	page, err := h.Client.ListEvents(ctx, creds, uid)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"events": []pretix.Event{}, "error": err.Error()})
	}
	if page.Results == nil {
		page.Results = []pretix.Event{}
	}
	return c.JSON(http.StatusOK, echo.Map{"events": page.Results})
}

// ShowEvent aggregates everything the event page displays: the event, its
// ticket types joined with quotas, its orders and its check-in lists with
// resolved product names.  Any upstream failure renders the empty page
// with an error marker.
func (h *PretixHandler) ShowEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event slug"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	empty := func(msg string) error {
		return c.JSON(http.StatusOK, echo.Map{
			"event":         nil,
			"tickets":       []pretix.Item{},
			"orders":        []pretix.Order{},
			"checkin_lists": []pretix.CheckinList{},
			"event_slug":    slug,
			"error":         msg,
		})
	}

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	items, err := h.Client.ListItems(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	quotas, err := h.Client.ListQuotas(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	orders, err := h.Client.ListOrders(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	lists, err := h.Client.ListCheckinLists(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}

	tickets := pretix.AttachQuotas(items.Results, quotas.Results)
	if tickets == nil {
		tickets = []pretix.Item{}
	}
	byID := pretix.IndexItems(items.Results)
	checkinLists := pretix.AttachProductNames(lists.Results, byID)
	if checkinLists == nil {
		checkinLists = []pretix.CheckinList{}
	}
	orderList := orders.Results
	if orderList == nil {
		orderList = []pretix.Order{}
	}

	shopActive := slices.Contains(event.SalesChannels, pretix.WebChannel)
	return c.JSON(http.StatusOK, echo.Map{
		"event":         event,
		"tickets":       tickets,
		"orders":        orderList,
		"checkin_lists": checkinLists,
		"event_slug":    slug,
		"shop_active":   shopActive,
		"tab":           c.QueryParam("tab"),
	})
}

type createEventReq struct {
	Name struct {
		FR string `json:"fr"`
		EN string `json:"en"`
	} `json:"name"`
	Slug     string `json:"slug"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
	Location string `json:"location"`
	Currency string `json:"currency"`
	Live     bool   `json:"live"`
}

// CreateEvent creates an event and applies the dashboard's default ticket
// settings.  The two upstream writes are recorded as steps: a settings
// failure after a committed creation yields success with a warning, never
// a rollback.
func (h *PretixHandler) CreateEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": map[string]string{"payload": "invalid payload"}})
	}

	fieldErrs := map[string]string{}
	if strings.TrimSpace(req.Name.FR) == "" {
		fieldErrs["name.fr"] = "french name is required"
	}
	if !validSlug(req.Slug) {
		fieldErrs["slug"] = "slug must contain only letters, digits and dashes"
	}
	var from, to time.Time
	if req.DateFrom == "" {
		fieldErrs["date_from"] = "date_from is required"
	} else if t, ok := parseEventDate(req.DateFrom); !ok {
		fieldErrs["date_from"] = "date_from must be a date or RFC 3339 timestamp"
	} else {
		from = t
	}
	if req.DateTo != "" {
		if t, ok := parseEventDate(req.DateTo); !ok {
			fieldErrs["date_to"] = "date_to must be a date or RFC 3339 timestamp"
		} else {
			to = t
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		fieldErrs["date_to"] = "date_to must not precede date_from"
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		fieldErrs["currency"] = "currency is required"
	} else if len(req.Currency) != 3 {
		fieldErrs["currency"] = "currency must be a 3-letter code"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrs})
	}

	name := pretix.LocalizedString{"fr": strings.TrimSpace(req.Name.FR)}
	if en := strings.TrimSpace(req.Name.EN); en != "" {
		name["en"] = en
	}
	live := req.Live
	testmode := false
	hasSubevents := false
	payload := pretix.Event{
		Name:         name,
		Slug:         req.Slug,
		Live:         &live,
		Testmode:     &testmode,
		HasSubevents: &hasSubevents,
		Currency:     req.Currency,
		DateFrom:     req.DateFrom,
		Plugins:      requiredPlugins,
	}
	if req.DateTo != "" {
		payload.DateTo = req.DateTo
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		payload.Location = pretix.LocalizedString{"fr": loc}
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	var outcome pretix.Outcome
	created, err := h.Client.CreateEvent(ctx, creds, uid, payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating event: " + err.Error()})
	}
	if created.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating event: " + created.Error})
	}
	outcome.Ok("create_event")
	outcome.Success = true

	t, f := true, false
	waitHours := 48
	settings := pretix.EventSettings{
		TicketDownload:        &t,
		TicketDownloadDate:    nil, // tickets available immediately
		TicketDownloadAddons:  &f,
		TicketDownloadPending: &f,
		MailAttachTickets:     &t,
		WaitingListEnabled:    &t,
		WaitingListAuto:       &t,
		WaitingListHours:      &waitHours,
		Locales:               []string{"fr", "en"},
	}
	applied, err := h.Client.UpdateEventSettings(ctx, creds, uid, created.Slug, settings)
	switch {
	case err != nil:
		outcome.Fail("apply_settings", err.Error())
		outcome.Warning = true
	case applied.Error != "":
		outcome.Fail("apply_settings", applied.Error)
		outcome.Warning = true
	default:
		outcome.Ok("apply_settings")
	}
	if outcome.Warning {
		c.Logger().Warnf("event %q created but settings failed", created.Slug)
	}

	result := "ok"
	if outcome.Warning {
		result = "warning"
	}
	audit(c, queue.ActionEventCreated, created.Slug, name.Display(created.Slug), result)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"warning": outcome.Warning,
		"slug":    created.Slug,
		"event":   created,
		"steps":   outcome.Steps,
	})
}

type toggleStatusReq struct {
	Live *bool `json:"live"`
}

// ToggleEventStatus flips the event's live flag.
func (h *PretixHandler) ToggleEventStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	var req toggleStatusReq
	if err := c.Bind(&req); err != nil || req.Live == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "live (boolean) is required"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	updated, err := h.Client.UpdateEvent(ctx, creds, uid, slug, pretix.EventPatch{Live: req.Live})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating event: " + err.Error()})
	}
	if updated.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating event: " + updated.Error})
	}
	msg := "event unpublished"
	if *req.Live {
		msg = "event published"
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "live": *req.Live, "message": msg})
}

type toggleShopReq struct {
	Active *bool `json:"active"`
}

// ToggleShop enables or disables the "web" sales channel.  The current
// channel set is read first; when it already matches the requested state
// the write is skipped and the call reports success.
func (h *PretixHandler) ToggleShop(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	var req toggleShopReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "active (boolean) is required"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error reading event: " + err.Error()})
	}
	if event.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error reading event: " + event.Error})
	}

	channels, changed := pretix.ToggleWebChannel(event.SalesChannels, *req.Active)
	if !changed {
		return c.JSON(http.StatusOK, echo.Map{
			"success":     true,
			"shop_active": *req.Active,
			"message":     "online shop already in the requested state",
		})
	}

	updated, err := h.Client.UpdateEvent(ctx, creds, uid, slug, pretix.EventPatch{SalesChannels: &channels})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating sales channels: " + err.Error()})
	}
	if updated.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating sales channels: " + updated.Error})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"shop_active":    *req.Active,
		"sales_channels": channels,
	})
}

// EnablePDF turns on ticket downloads for an event: the download settings
// are patched, then every missing required plugin is merged back into the
// event's plugin list.
func (h *PretixHandler) EnablePDF(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	t := true
	settings := pretix.EventSettings{
		TicketDownload:     &t,
		TicketDownloadDate: nil,
		MailAttachTickets:  &t,
		WaitingListEnabled: &t,
	}
	applied, err := h.Client.UpdateEventSettings(ctx, creds, uid, slug, settings)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating settings: " + err.Error()})
	}
	if applied.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating settings: " + applied.Error})
	}

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error reading event: " + err.Error()})
	}
	var missing []string
	for _, p := range requiredPlugins {
		if !slices.Contains(event.Plugins, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		plugins := append(slices.Clone(event.Plugins), missing...)
		updated, err := h.Client.UpdateEvent(ctx, creds, uid, slug, pretix.EventPatch{Plugins: plugins})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error enabling pdf plugin: " + err.Error()})
		}
		if updated.Error != "" {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error enabling pdf plugin: " + updated.Error})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "pdf ticket download enabled"})
}
