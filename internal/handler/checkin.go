package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
	"github.com/billetterie/pretix-admin/internal/queue"
)

// CheckinLists returns an event's check-in lists with limited product ids
// resolved to display names.
func (h *PretixHandler) CheckinLists(c echo.Context) error {
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
		return c.JSON(http.StatusOK, echo.Map{"event": nil, "checkin_lists": []pretix.CheckinList{}, "event_slug": slug, "error": msg})
	}

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	lists, err := h.Client.ListCheckinLists(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	items, err := h.Client.ListItems(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}

	enriched := pretix.AttachProductNames(lists.Results, pretix.IndexItems(items.Results))
	if enriched == nil {
		enriched = []pretix.CheckinList{}
	}
	return c.JSON(http.StatusOK, echo.Map{"event": event, "checkin_lists": enriched, "event_slug": slug})
}

// CheckinListDetails returns one check-in list with its known positions and
// their redemption state.
func (h *PretixHandler) CheckinListDetails(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event slug"})
	}
	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || listID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check-in list id"})
	}
	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	empty := func(msg string) error {
		return c.JSON(http.StatusOK, echo.Map{"event": nil, "checkin_list": nil, "positions": []pretix.Position{}, "event_slug": slug, "error": msg})
	}

	event, err := h.Client.GetEvent(ctx, creds, uid, slug)
	if err != nil {
		return empty(err.Error())
	}
	list, err := h.Client.GetCheckinList(ctx, creds, uid, slug, listID)
	if err != nil {
		return empty(err.Error())
	}
	if list.Error != "" {
		return empty(list.Error)
	}
	positions, err := h.Client.ListCheckinPositions(ctx, creds, uid, slug, listID)
	if err != nil {
		return empty(err.Error())
	}
	posList := positions.Results
	if posList == nil {
		posList = []pretix.Position{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":        event,
		"checkin_list": list,
		"positions":    posList,
		"event_slug":   slug,
	})
}

type createCheckinListReq struct {
	Name           string  `json:"name"`
	AllProducts    bool    `json:"all_products"`
	LimitProducts  []int64 `json:"limit_products"`
	IncludePending bool    `json:"include_pending"`
}

// CreateCheckinList creates a check-in list.  A list that covers a subset
// of products must name at least one product.
func (h *PretixHandler) CreateCheckinList(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": map[string]string{"slug": "invalid event slug"}})
	}
	var req createCheckinListReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": map[string]string{"payload": "invalid payload"}})
	}

	fieldErrs := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fieldErrs["name"] = "name is required"
	}
	if !req.AllProducts && len(req.LimitProducts) == 0 {
		fieldErrs["limit_products"] = "limit_products is required unless all_products is set"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrs})
	}

	payload := pretix.CheckinListPayload{
		Name:           req.Name,
		AllProducts:    req.AllProducts,
		IncludePending: req.IncludePending,
	}
	if !req.AllProducts {
		payload.LimitProducts = req.LimitProducts
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	list, err := h.Client.CreateCheckinList(ctx, creds, uid, slug, payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating check-in list: " + err.Error()})
	}
	if list.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating check-in list: " + list.Error})
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "checkin_list": list})
}

type checkinReq struct {
	Secret       string `json:"secret"`
	IgnoreUnpaid bool   `json:"ignore_unpaid"`
	Force        bool   `json:"force"`
	Nonce        string `json:"nonce"`
}

// PerformCheckin forwards a scan to the upstream check-in endpoint and
// returns the upstream decision verbatim; no redemption state is kept
// locally.
func (h *PretixHandler) PerformCheckin(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || listID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid check-in list id"})
	}
	var req checkinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid payload"})
	}
	req.Secret = strings.TrimSpace(req.Secret)
	if req.Secret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "secret is required"})
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	raw, err := h.Client.PerformCheckin(ctx, creds, uid, slug, listID, pretix.CheckinRequest{
		Secret:       req.Secret,
		IgnoreUnpaid: req.IgnoreUnpaid,
		Force:        req.Force,
		Nonce:        req.Nonce,
	})
	if err != nil {
		audit(c, queue.ActionCheckinPerformed, slug, req.Secret, "failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error performing check-in: " + err.Error()})
	}

	audit(c, queue.ActionCheckinPerformed, slug, req.Secret, "ok")
	return c.JSONBlob(http.StatusOK, raw)
}
