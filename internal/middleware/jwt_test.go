package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/billetterie/pretix-admin/internal/utils"
)

func runProtected(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c
}

// TestJWTAuthAcceptsValidToken checks a signed token passes and its claims
// land in the context.
func TestJWTAuthAcceptsValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", 42, "ADMIN", 5)
	if err != nil {
		t.Fatalf("NewAccessToken returned error: %v", err)
	}
	rec, c := runProtected(t, JWTAuth("secret"), "Bearer "+tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sub, ok := c.Get("user_id").(float64)
	if !ok || uint64(sub) != 42 {
		t.Fatalf("expected user_id 42 in context, got %v", c.Get("user_id"))
	}
	if c.Get("role") != "ADMIN" {
		t.Fatalf("expected role ADMIN in context, got %v", c.Get("role"))
	}
}

// TestJWTAuthRejectsMissingAndBadTokens covers the 401 paths.
func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := runProtected(t, JWTAuth("secret"), tc.header)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

// TestJWTAuthRejectsWrongSecret ensures tokens signed with another secret
// fail verification.
func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 42, "ADMIN", 5)
	if err != nil {
		t.Fatalf("NewAccessToken returned error: %v", err)
	}
	rec, _ := runProtected(t, JWTAuth("secret"), "Bearer "+tok.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

// TestRequireRole enforces the role claim set by JWTAuth.
func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("ADMIN", "OPERATOR")

	run := func(role any) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := handler(c); err != nil {
			t.Fatalf("middleware returned error: %v", err)
		}
		return rec
	}

	if rec := run("OPERATOR"); rec.Code != http.StatusOK {
		t.Fatalf("expected OPERATOR allowed, got %d", rec.Code)
	}
	if rec := run("CUSTOMER"); rec.Code != http.StatusForbidden {
		t.Fatalf("expected unknown role rejected, got %d", rec.Code)
	}
	if rec := run(nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected missing role rejected, got %d", rec.Code)
	}
}
