package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/pretix"
	"github.com/billetterie/pretix-admin/internal/queue"
	queue_publisher "github.com/billetterie/pretix-admin/internal/service"
)

// PretixHandler bundles the credential resolver and the gateway client for
// every route that talks to the upstream ticketing API.
type PretixHandler struct {
	Resolver *pretix.Resolver
	Client   *pretix.Client
}

// NewPretixHandler constructs a PretixHandler and panics if a dependency is nil.
func NewPretixHandler(resolver *pretix.Resolver, client *pretix.Client) *PretixHandler {
	if resolver == nil || client == nil {
		panic("nil dependency passed to NewPretixHandler")
	}
	return &PretixHandler{Resolver: resolver, Client: client}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		// JWT numeric claims decode as float64.
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// audit publishes an audit event for an administrative action.  Publishing
// is best-effort; failures are logged by the publisher and ignored here.
func audit(c echo.Context, action, slug, target, outcome string) {
	uid, _ := getUserID(c)
	_ = queue_publisher.PublishAudit(c.Request().Context(), queue.AuditEvent{
		Action:     action,
		ActorID:    uid,
		EventSlug:  slug,
		Target:     target,
		Outcome:    outcome,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
