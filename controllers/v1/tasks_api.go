package apiv1

import (
	"shift-tools-backend/controllers"
	vacancytasks "shift-tools-backend/lib/vacancy/tasks"
	"shift-tools-backend/middleware"
	apimodels "shift-tools-backend/models/api"

	"github.com/gofiber/fiber/v2"
)

type tasksApiController struct {
	controllers.BaseAPIController
}

type TaskRunResult struct {
	Name string `json:"name"`
	Ran  bool   `json:"ran"` // false, если задача уже выполняется
}

func InitTasksApiRouters(app fiber.Router) {
	controller := tasksApiController{}
	app.Use(middleware.StaffRequired())
	app.Get("", controller.list)
	app.Post(":name", controller.run)
}

// @Summary Список задач
// @Tags Задачи
// @Description Имена задач планировщика
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]string}
// @Failure 403
// @router /api/v1/tasks [get]
func (c *tasksApiController) list(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(vacancytasks.Instance.Names()))
}

// @Summary Запуск задачи
// @Tags Задачи
// @Description Однократный запуск задачи планировщика (для внешнего cron)
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   name          		path    string  				    	true         "task name"
// @Success 200 {object} apimodels.Response{data=TaskRunResult}
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/tasks/{name} [post]
func (c *tasksApiController) run(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	ran, err := vacancytasks.Instance.Run(ctx.UserContext(), name)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("task", name), err, "Ошибка выполнения задачи")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(TaskRunResult{Name: name, Ran: ran}))
}
