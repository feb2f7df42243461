package handler

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
)

// orderCodeRe matches upstream order codes (short uppercase alphanumerics).
var orderCodeRe = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

// ListOrders returns all orders of an event.
func (h *PretixHandler) ListOrders(c echo.Context) error {
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

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"event": nil, "orders": []pretix.Order{}, "event_slug": slug, "error": err.Error()})
	}
	orders, err := h.Client.ListOrders(ctx, creds, uid, slug)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"event": event, "orders": []pretix.Order{}, "event_slug": slug, "error": err.Error()})
	}
	list := orders.Results
	if list == nil {
		list = []pretix.Order{}
	}
	return c.JSON(http.StatusOK, echo.Map{"event": event, "orders": list, "event_slug": slug})
}

// OrderDetails returns one order enriched for display: positions carry the
// full item object, per-position PDF links and public ticket page URLs,
// and the order carries its all-tickets download link.
func (h *PretixHandler) OrderDetails(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event slug"})
	}
	code := c.Param("code")
	if !orderCodeRe.MatchString(code) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order code"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	empty := func(msg string) error {
		return c.JSON(http.StatusOK, echo.Map{"event": nil, "order": nil, "event_slug": slug, "error": msg})
	}

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	order, err := h.Client.GetOrder(ctx, creds, uid, slug, code)
	if err != nil {
		return empty(err.Error())
	}
	if order.Error != "" {
		return empty(order.Error)
	}

	// Some upstream representations omit embedded positions; fetch them
	// separately in that case. A failed fetch leaves the order position-less
	// rather than failing the page.
	if len(order.Positions) == 0 {
		if positions, err := h.Client.ListOrderPositions(ctx, creds, uid, slug, code); err == nil {
			order.Positions = positions.Results
		}
	}

	itemsByID := map[int64]pretix.Item{}
	if items, err := h.Client.ListItems(ctx, creds, uid, slug); err == nil {
		itemsByID = pretix.IndexItems(items.Results)
	}

	order = pretix.EnrichOrder(order, itemsByID, creds, slug)
	return c.JSON(http.StatusOK, echo.Map{"event": event, "order": order, "event_slug": slug})
}

// DownloadTicket streams the ticket PDF for a whole order or, with the
// position query parameter, for a single position.
func (h *PretixHandler) DownloadTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	code := c.Param("code")
	if !orderCodeRe.MatchString(code) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid order code"})
	}

	var positionID *int64
	if raw := c.QueryParam("position"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid position id"})
		}
		positionID = &id
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	pdf, err := h.Client.DownloadTicketPDF(ctx, creds, uid, slug, code, positionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error downloading ticket: " + err.Error()})
	}

	filename := fmt.Sprintf("ticket-%s-%s", slug, code)
	if positionID != nil {
		filename = fmt.Sprintf("%s-%d", filename, *positionID)
	}
	filename += ".pdf"

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
