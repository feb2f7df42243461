package router // router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/handler"
	"github.com/billetterie/pretix-admin/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers authentication routes.  Unauthenticated
// operations live under /v1/auth, while /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout only needs the refresh token in the body, not a JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OPERATOR"),
	)
	auth.GET("/me", a.Me)
}

// RegisterPretix registers every dashboard endpoint that reads or writes
// the upstream ticketing API.  All routes require a valid JWT with the
// ADMIN or OPERATOR role; the optional limiter throttles per operator.
func RegisterPretix(e *echo.Echo, p *handler.PretixHandler, cfg *handler.ConfigHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN", "OPERATOR"),
	}
	if limiter != nil {
		mws = append(mws, limiter)
	}
	g := e.Group("/v1", mws...)

	// ---- Upstream credentials ----
	g.GET("/pretix/config", cfg.GetConfig)
	g.PUT("/pretix/config", cfg.PutConfig)

	// ---- Events ----
	g.GET("/events", p.ListEvents)
	g.POST("/events", p.CreateEvent)
	g.GET("/events/:slug", p.ShowEvent)
	g.POST("/events/:slug/toggle-status", p.ToggleEventStatus)
	g.POST("/events/:slug/toggle-shop", p.ToggleShop)
	g.POST("/events/:slug/enable-pdf", p.EnablePDF)

	// ---- Tickets ----
	g.POST("/events/:slug/tickets", p.CreateTicket)
	g.PUT("/events/:slug/tickets/:id", p.UpdateTicket)
	g.PATCH("/events/:slug/tickets/:id", p.UpdateTicket)
	g.DELETE("/events/:slug/tickets/:id", p.DeleteTicket)

	// ---- Orders ----
	g.GET("/events/:slug/orders", p.ListOrders)
	g.GET("/events/:slug/orders/:code", p.OrderDetails)
	g.GET("/events/:slug/orders/:code/download", p.DownloadTicket)

	// ---- Check-in ----
	g.GET("/events/:slug/checkin-lists", p.CheckinLists)
	g.POST("/events/:slug/checkin-lists", p.CreateCheckinList)
	g.GET("/events/:slug/checkin-lists/:id", p.CheckinListDetails)
	g.POST("/events/:slug/checkin-lists/:id/checkin", p.PerformCheckin)
}
