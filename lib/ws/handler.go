package ws

import (
	wsclient "shift-tools-backend/lib/ws/client"
	connectionhub "shift-tools-backend/lib/ws/hub/connection-hub"
	"shift-tools-backend/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func InitWs(app fiber.Router) {
	app.Use("", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		ctx.Locals("userID", middleware.GetUserID(ctx))
		return ctx.Next()
	})
	app.Get("/", websocket.New(feedHandler))
}

// @Summary Лента событий вакансий
// @Tags Websocket
// @Description События жизненного цикла вакансий для сотрудников
// @Param   Authorization		header		string		true		"Authorization token"
// @Success 200 {object} wsmodels.ServerMessage
// @Failure 403
// @Failure 426
// @router /api/v1/ws [get]
func feedHandler(c *websocket.Conn) {
	userID := c.Locals("userID").(int64)
	client := wsclient.NewClient(userID, c)
	connectionhub.Instance.AddClient(userID, c)
	defer func() {
		connectionhub.Instance.DeleteClient(userID)
	}()
	client.Dispatch()
}
