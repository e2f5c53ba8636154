package webhooks

import (
	"shift-tools-backend/controllers"
	tgwebhook "shift-tools-backend/lib/telegram/webhook"
	tgapimodels "shift-tools-backend/models/api/telegram"

	"github.com/gofiber/fiber/v2"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

type telegramApiController struct {
	controllers.BaseAPIController
}

func InitTelegramWebhookRouters(app fiber.Router) {
	controller := telegramApiController{}
	app.Post("telegram", controller.update)
}

// @Summary Webhook Telegram
// @Tags Webhook
// @Description Обновления Bot API: заявки на вступление, участники групп, кнопки, оплата
// @Param   X-Telegram-Bot-Api-Secret-Token		header		string	false	"webhook secret"
// @Param	body body	 tgapimodels.Update	true	"update"
// @Success 200
// @Failure 400
// @Failure 403
// @router /api/v1/webhooks/telegram [post]
func (c *telegramApiController) update(ctx *fiber.Ctx) error {
	if !tgwebhook.Instance.CheckSecret(ctx.Get(secretHeader)) {
		return ctx.SendStatus(fiber.StatusForbidden)
	}
	var upd tgapimodels.Update
	if err := c.BodyParser(ctx, &upd); err != nil {
		return ctx.SendStatus(fiber.StatusBadRequest)
	}
	// Telegram повторяет обновление при ответе не 200, ошибку обработки только логируем
	if err := tgwebhook.Instance.Handle(ctx.UserContext(), upd); err != nil {
		c.GetLogger(ctx).
			WithField("update_id", upd.UpdateID).
			WithError(err).
			Error("ошибка обработки обновления Telegram")
	}
	return ctx.SendStatus(fiber.StatusOK)
}
