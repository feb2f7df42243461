package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
	"github.com/billetterie/pretix-admin/internal/queue"
)

type createTicketReq struct {
	Name      string   `json:"name"`
	Price     *float64 `json:"price"`
	QuotaSize *int64   `json:"quota_size"` // nil = unlimited
	Admission *bool    `json:"is_admission"`
}

// CreateTicket creates a ticket type and its quota in two upstream writes.
// A quota failure after the ticket committed yields success with a warning
// so the operator knows the ticket exists without a capacity limit.
func (h *PretixHandler) CreateTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": map[string]string{"slug": "invalid event slug"}})
	}
	var req createTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": map[string]string{"payload": "invalid payload"}})
	}

	fieldErrs := map[string]string{}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		fieldErrs["name"] = "name is required"
	}
	if req.Price == nil {
		fieldErrs["price"] = "price is required"
	} else if *req.Price < 0 {
		fieldErrs["price"] = "price must not be negative"
	}
	if req.QuotaSize != nil && *req.QuotaSize < 0 {
		fieldErrs["quota_size"] = "quota_size must not be negative"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrs})
	}

	admission := true
	if req.Admission != nil {
		admission = *req.Admission
	}
	payload := pretix.ItemPayload{
		Name:             pretix.LocalizedString{"fr": req.Name},
		DefaultPrice:     *req.Price,
		Admission:        admission,
		Active:           true,
		SalesChannels:    []string{pretix.WebChannel},
		TaxRate:          0,
		GenerateTickets:  true,
		ShowQuotaLeft:    true,
		AllowWaitinglist: true,
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	var outcome pretix.Outcome
	item, err := h.Client.CreateItem(ctx, creds, uid, slug, payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating ticket: " + err.Error()})
	}
	if item.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error creating ticket: " + item.Error})
	}
	if item.ID == 0 {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "could not determine created ticket id"})
	}
	outcome.Ok("create_ticket")
	outcome.Success = true

	quotaPayload := pretix.QuotaPayload{
		Name:  "Quota for " + req.Name,
		Size:  req.QuotaSize, // nil marshals as null = unlimited
		Items: []int64{item.ID},
	}
	quota, err := h.Client.CreateQuota(ctx, creds, uid, slug, quotaPayload)
	switch {
	case err != nil:
		outcome.Fail("create_quota", err.Error())
		outcome.Warning = true
	case quota.Error != "":
		outcome.Fail("create_quota", quota.Error)
		outcome.Warning = true
	default:
		outcome.Ok("create_quota")
	}
	if outcome.Warning {
		c.Logger().Warnf("ticket %d created on %q but quota failed", item.ID, slug)
	}

	result := "ok"
	if outcome.Warning {
		result = "warning"
	}
	audit(c, queue.ActionTicketCreated, slug, req.Name, result)

	resp := echo.Map{
		"success":   true,
		"warning":   outcome.Warning,
		"ticket_id": item.ID,
		"steps":     outcome.Steps,
	}
	if outcome.Warning {
		resp["message"] = "ticket created but its quota could not be created"
	}
	return c.JSON(http.StatusCreated, resp)
}

type updateTicketReq struct {
	Name      *string  `json:"name"`
	Price     *float64 `json:"price"`
	Active    *bool    `json:"active"`
	Admission *bool    `json:"is_admission"`
}

// UpdateTicket patches a ticket type with the provided fields.
func (h *PretixHandler) UpdateTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid ticket id"})
	}
	var req updateTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid payload"})
	}

	patch := pretix.ItemPatch{
		DefaultPrice: req.Price,
		Active:       req.Active,
		Admission:    req.Admission,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "name must not be empty"})
		}
		patch.Name = pretix.LocalizedString{"fr": name}
	}
	if req.Price != nil && *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "price must not be negative"})
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	item, err := h.Client.UpdateItem(ctx, creds, uid, slug, itemID, patch)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating ticket: " + err.Error()})
	}
	if item.Error != "" {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error updating ticket: " + item.Error})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "ticket": item})
}

// DeleteTicket removes a ticket type upstream.
func (h *PretixHandler) DeleteTicket(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	slug := c.Param("slug")
	if !validSlug(slug) {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid event slug"})
	}
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || itemID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid ticket id"})
	}

	ctx := c.Request().Context()
	creds := h.Resolver.Resolve(ctx, uid)

	if err := h.Client.DeleteItem(ctx, creds, uid, slug, itemID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "error deleting ticket: " + err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": fmt.Sprintf("ticket %d deleted", itemID)})
}
