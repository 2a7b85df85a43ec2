package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tracingApp() (*fiber.App, *string) {
	var seen string
	app := fiber.New()
	app.Use(Tracing())
	app.Get("/", func(c *fiber.Ctx) error {
		seen = GetTraceID(c)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, &seen
}

func TestTracing_MintsFreshID(t *testing.T) {
	app, seen := tracingApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	header := resp.Header.Get("X-Trace-Id")
	_, err = uuid.Parse(header)
	require.NoError(t, err)
	assert.Equal(t, header, *seen)
}

func TestTracing_HonorsValidInboundID(t *testing.T) {
	app, seen := tracingApp()
	inbound := uuid.New().String()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", inbound)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, inbound, resp.Header.Get("X-Trace-Id"))
	assert.Equal(t, inbound, *seen)
}

func TestTracing_ReplacesMalformedInboundID(t *testing.T) {
	app, _ := tracingApp()

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Trace-Id", "not-a-uuid")
	resp, err := app.Test(req)
	require.NoError(t, err)

	header := resp.Header.Get("X-Trace-Id")
	assert.NotEqual(t, "not-a-uuid", header)
	_, err = uuid.Parse(header)
	assert.NoError(t, err)
}
