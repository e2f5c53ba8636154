package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"shift-tools-backend/lib/notification"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrNotify сообщает сотрудникам об ответах API с кодом 5xx
func ErrNotify(notifier notification.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		statusCode := c.Response().StatusCode()
		if statusCode < http.StatusInternalServerError {
			return err
		}

		var data struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if unmErr := json.Unmarshal(c.Response().Body(), &data); unmErr != nil {
			log.WithError(unmErr).Debug("ошибка разбора тела ответа")
		}
		msg := data.Message
		if msg == "" {
			msg = string(c.Response().Body())
		}
		method := c.Method()
		path := c.OriginalURL()
		if r := c.Route(); r != nil {
			path = r.Path
		}

		go func() {
			text := fmt.Sprintf("API %d\n%s %s\n%s", statusCode, method, path, msg)
			result := notifier.NotifyStaff(context.Background(), "Помилка API", notification.Text{Text: text, DisablePreview: true})
			if result.Failed > 0 {
				log.WithField("failed", result.Failed).Warn("не всем сотрудникам отправлено уведомление об ошибке")
			}
		}()
		return err
	}
}
