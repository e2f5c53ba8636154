package fiberlog

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	app := fiber.New()
	app.Use(New(Config{
		Logger: logger,
		Tags:          []string{TagMethod, TagPath, TagStatus, TagBody, TagResBody, TagUserID},
		HideBodyPaths: []string{"/webhooks/"},
	}))
	app.Post("/webhooks/telegram", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success"})
	})
	app.Post("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success"})
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).SendString("boom")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})
	return app, hook
}

func TestLogger(t *testing.T) {
	t.Run("success request check", func(t *testing.T) {
		app, hook := newApp(t)
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/ok", strings.NewReader(`{"a":1}`)))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		require.Equal(t, log.InfoLevel, entry.Level)
		require.Equal(t, fiber.MethodPost, entry.Data[TagMethod])
		require.Equal(t, "/ok", entry.Data[TagPath])
		require.Equal(t, `{"a":1}`, entry.Data[TagBody])
		require.Equal(t, `{"status":"success"}`, entry.Data[TagResBody])
		require.NotContains(t, entry.Data, TagUserID)
	})
	t.Run("level by status check", func(t *testing.T) {
		app, hook := newApp(t)
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/fail", nil))
		require.NoError(t, err)
		require.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
		require.NotContains(t, hook.LastEntry().Data, TagResBody)

		_, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/missing", nil))
		require.NoError(t, err)
		require.Equal(t, log.WarnLevel, hook.LastEntry().Level)
	})
	t.Run("hidden body check", func(t *testing.T) {
		app, hook := newApp(t)
		_, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/webhooks/telegram", strings.NewReader(`{"phone":"+380501112233"}`)))
		require.NoError(t, err)

		entry := hook.LastEntry()
		require.Equal(t, "/webhooks/telegram", entry.Data[TagPath])
		require.NotContains(t, entry.Data, TagBody)
		require.NotContains(t, entry.Data, TagResBody)
	})
	t.Run("long body is cut check", func(t *testing.T) {
		require.Len(t, cut([]byte(strings.Repeat("x", defaultMaxBodyLen+10)), defaultMaxBodyLen), defaultMaxBodyLen+3)
		require.Equal(t, "short", cut([]byte("short"), defaultMaxBodyLen))
	})
	t.Run("default config check", func(t *testing.T) {
		cfg := configDefault(Config{Tags: []string{TagBody}})
		require.Equal(t, defaultMaxBodyLen, cfg.MaxBodyLen)
		require.Equal(t, []string{TagBody}, cfg.Tags)
		require.Equal(t, ConfigDefault.Tags, configDefault().Tags)
	})
}
