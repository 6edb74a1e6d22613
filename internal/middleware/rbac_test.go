package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(userID interface{}, role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != nil {
			c.Locals("user_id", userID)
		}
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(RequireRole("Admin", "moderator"))
	app.Get("/audit", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		userID interface{}
		role   interface{}
		status int
	}{
		{name: "admin", userID: uint(1), role: "admin", status: fiber.StatusOK},
		{name: "moderator mixed case", userID: uint(2), role: " Moderator ", status: fiber.StatusOK},
		{name: "teacher", userID: uint(3), role: "teacher", status: fiber.StatusForbidden},
		{name: "missing role", userID: uint(4), status: fiber.StatusForbidden},
		{name: "anonymous", role: "admin", status: fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := roleApp(tc.userID, tc.role).Test(httptest.NewRequest(http.MethodGet, "/audit", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestCorrelationIDReusesSafeHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, GetCorrelationID(c), CorrelationIDFromContext(c.UserContext()))
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-123", resp.Header.Get("X-Correlation-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "bad id with spaces")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.NotEqual(t, "bad id with spaces", resp.Header.Get("X-Correlation-ID"))
	require.Len(t, resp.Header.Get("X-Correlation-ID"), 36)
}
