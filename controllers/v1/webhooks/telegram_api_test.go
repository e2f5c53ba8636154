package webhooks

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tgwebhook "shift-tools-backend/lib/telegram/webhook"
	tgapimodels "shift-tools-backend/models/api/telegram"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeWebhook struct {
	secret  string
	err     error
	handled []tgapimodels.Update
}

func (f *fakeWebhook) CheckSecret(token string) bool {
	return f.secret == "" || token == f.secret
}

func (f *fakeWebhook) Handle(ctx context.Context, upd tgapimodels.Update) error {
	f.handled = append(f.handled, upd)
	return f.err
}

func newApp(hook tgwebhook.Provider) *fiber.App {
	tgwebhook.Instance = hook
	app := fiber.New()
	InitTelegramWebhookRouters(app)
	return app
}

func post(t *testing.T, app *fiber.App, body, secret string) int {
	req := httptest.NewRequest(fiber.MethodPost, "/telegram", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestTelegramWebhook(t *testing.T) {
	t.Run("wrong secret check", func(t *testing.T) {
		hook := &fakeWebhook{secret: "s3cret"}
		app := newApp(hook)
		require.Equal(t, fiber.StatusForbidden, post(t, app, `{"update_id":1}`, "other"))
		require.Empty(t, hook.handled)
	})
	t.Run("bad body check", func(t *testing.T) {
		hook := &fakeWebhook{secret: "s3cret"}
		app := newApp(hook)
		require.Equal(t, fiber.StatusBadRequest, post(t, app, `{"update_id":`, "s3cret"))
		require.Empty(t, hook.handled)
	})
	t.Run("update dispatched check", func(t *testing.T) {
		hook := &fakeWebhook{secret: "s3cret"}
		app := newApp(hook)
		body := `{"update_id":7,"chat_join_request":{"chat":{"id":-100},"from":{"id":42}}}`
		require.Equal(t, fiber.StatusOK, post(t, app, body, "s3cret"))
		require.Len(t, hook.handled, 1)
		require.Equal(t, int64(7), hook.handled[0].UpdateID)
		require.NotNil(t, hook.handled[0].ChatJoinRequest)
	})
	t.Run("handler error still acknowledged check", func(t *testing.T) {
		hook := &fakeWebhook{err: errors.New("ошибка БД")}
		app := newApp(hook)
		require.Equal(t, fiber.StatusOK, post(t, app, `{"update_id":8}`, ""))
		require.Len(t, hook.handled, 1)
	})
}
