package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health responds with service liveness and database reachability.
func Health(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		dbStatus := "up"
		if err := db.PingContext(ctx); err != nil {
			dbStatus = "down"
		}
		code := http.StatusOK
		if dbStatus != "up" {
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, echo.Map{
			"status": "ok",
			"db":     dbStatus,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
