package middleware

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shift-tools-backend/config"
	"shift-tools-backend/lib/notification"
	authutils "shift-tools-backend/lib/utils/auth-utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	notification.Provider
	mu       sync.Mutex
	subjects []string
	texts    []string
}

func (f *fakeNotifier) NotifyStaff(ctx context.Context, subject string, msg notification.Message) notification.BroadcastResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	if text, ok := msg.(notification.Text); ok {
		f.texts = append(f.texts, text.Text)
	}
	return notification.BroadcastResult{Sent: 1}
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func setConfig() {
	config.Conf = &config.Configuration{}
	config.Conf.Auth.JWTSecret = "test-secret"
	config.Conf.Auth.JWTExpireInSec = 60
}

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthorizationRequired())
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": GetUserID(c), "staff": IsStaff(c), "name": GetUserName(c)})
	})
	app.Get("/staff", StaffRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func request(t *testing.T, app *fiber.App, path, token string) int {
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthorization(t *testing.T) {
	setConfig()
	app := newAuthApp()
	staffToken, err := authutils.GetToken(900, "Staff", true)
	require.NoError(t, err)
	ownerToken, err := authutils.GetToken(500, "Owner", false)
	require.NoError(t, err)

	t.Run("no token check", func(t *testing.T) {
		require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", ""))
	})
	t.Run("bad token check", func(t *testing.T) {
		require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/me", "garbage"))
	})
	t.Run("claims check", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+ownerToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"id":500,"staff":false,"name":"Owner"}`, string(body))
	})
	t.Run("staff only check", func(t *testing.T) {
		require.Equal(t, fiber.StatusForbidden, request(t, app, "/staff", ownerToken))
		require.Equal(t, fiber.StatusOK, request(t, app, "/staff", staffToken))
	})
}

func TestWithBodyLimit(t *testing.T) {
	app := fiber.New()
	app.Use(WithBodyLimit(8))
	app.Post("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	t.Run("small body check", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader("1234")))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
	t.Run("large body check", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader("123456789")))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}

func TestErrNotify(t *testing.T) {
	notifier := &fakeNotifier{}
	app := fiber.New()
	app.Use(ErrNotify(notifier))
	app.Get("/fail", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "fail", "message": "ошибка БД"})
	})
	app.Get("/bad", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusBadRequest)
	})

	t.Run("client error is not reported check", func(t *testing.T) {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/bad", nil))
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)
		require.Empty(t, notifier.sent())
	})
	t.Run("server error is reported check", func(t *testing.T) {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/fail", nil))
		require.NoError(t, err)
		require.Eventually(t, func() bool { return len(notifier.sent()) == 1 }, time.Second, 10*time.Millisecond)
		require.Contains(t, notifier.sent()[0], "API 500")
		require.Contains(t, notifier.sent()[0], "GET /fail")
		require.Contains(t, notifier.sent()[0], "ошибка БД")
	})
}
