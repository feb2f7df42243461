package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/repository"
)

// ConfigHandler manages the operator's upstream credential record.
type ConfigHandler struct {
	Creds *repository.CredentialRepo
}

func NewConfigHandler(creds *repository.CredentialRepo) *ConfigHandler {
	return &ConfigHandler{Creds: creds}
}

// GetConfig returns the operator's credential record.  The API key is
// returned masked; the full value is write-only through this endpoint.
func (h *ConfigHandler) GetConfig(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	rec, err := h.Creds.ByUser(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return c.JSON(http.StatusOK, echo.Map{"configured": false})
		}
		c.Logger().Errorf("get pretix config: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load configuration"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"configured": true,
		"base_url":   rec.BaseURL,
		"organizer":  rec.Organizer,
		"api_key":    maskKey(rec.APIKey),
		"active":     rec.Active,
		"updated_at": rec.UpdatedAt,
	})
}

type putConfigReq struct {
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key"`
	Organizer string `json:"organizer"`
	Active    *bool  `json:"active"`
}

// PutConfig creates or replaces the operator's credential record.
func (h *ConfigHandler) PutConfig(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	var req putConfigReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	fieldErrs := map[string]string{}
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	if req.BaseURL == "" {
		fieldErrs["base_url"] = "base_url is required"
	} else if u, err := url.Parse(req.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fieldErrs["base_url"] = "base_url must be an absolute http(s) URL"
	}
	if strings.TrimSpace(req.APIKey) == "" {
		fieldErrs["api_key"] = "api_key is required"
	}
	if strings.TrimSpace(req.Organizer) == "" {
		fieldErrs["organizer"] = "organizer is required"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "errors": fieldErrs})
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	rec := repository.Credential{
		UserID:    uid,
		BaseURL:   req.BaseURL,
		APIKey:    strings.TrimSpace(req.APIKey),
		Organizer: strings.TrimSpace(req.Organizer),
		Active:    active,
	}
	if err := h.Creds.Upsert(c.Request().Context(), rec); err != nil {
		c.Logger().Errorf("save pretix config: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save configuration"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "active": active})
}

// maskKey keeps the last four characters visible so operators can tell
// which token is stored without exposing it.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
