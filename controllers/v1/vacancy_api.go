package apiv1

import (
	"fmt"
	"shift-tools-backend/config"
	"shift-tools-backend/controllers"
	"shift-tools-backend/lib/payment"
	vacancyhandler "shift-tools-backend/lib/vacancy"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	vacancyreport "shift-tools-backend/lib/vacancy/report"
	"shift-tools-backend/middleware"
	"shift-tools-backend/models"
	apimodels "shift-tools-backend/models/api"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"

	"github.com/gofiber/fiber/v2"
)

const vacancyLocal = "vacancy"

type vacancyApiController struct {
	controllers.BaseAPIController
}

func InitVacancyApiRouters(app fiber.Router) {
	controller := vacancyApiController{}
	staff := middleware.StaffRequired()
	app.Post("list", controller.list)
	app.Post("", controller.create)
	app.Route(":id", func(idRoute fiber.Router) {
		idRoute.Get("", controller.access, controller.get)
		idRoute.Delete("", staff, controller.access, controller.delete)
		idRoute.Put("change_status", staff, controller.access, controller.changeStatus)
		idRoute.Put("close", staff, controller.access, controller.forceClose)
		idRoute.Post("cleanup", staff, controller.access, controller.cleanup)
		idRoute.Get("history", controller.access, controller.history)
		idRoute.Post("refind", controller.access, controller.refind)
		idRoute.Post("feedback", controller.access, controller.feedback)
		idRoute.Get("pre_call/:call_type", controller.access, controller.preCall)
		idRoute.Get("roster/:call_type", controller.access, controller.roster)
		idRoute.Put("roster/:call_type", controller.access, controller.confirmRoster)
		idRoute.Get("report", controller.access, controller.report)
		idRoute.Post("report/archive", staff, controller.access, controller.archiveReport)
		idRoute.Get("payments", controller.access, controller.payments)
		idRoute.Get("payments/:payment_id/receipt", controller.access, controller.receipt)
	})
}

// access загружает вакансию: заказчику доступны только свои, сотруднику все
func (c *vacancyApiController) access(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := vacancyhandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения вакансии")
	}
	if !c.CanAccessVacancy(ctx, view.OwnerID) {
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("операция недоступна"))
	}
	ctx.Locals(vacancyLocal, view)
	return ctx.Next()
}

func (c *vacancyApiController) vacancy(ctx *fiber.Ctx) vacancyapimodels.VacancyView {
	view, _ := ctx.Locals(vacancyLocal).(vacancyapimodels.VacancyView)
	return view
}

func (c *vacancyApiController) callType(ctx *fiber.Ctx) (models.CallType, error) {
	callType := models.CallType(ctx.Params("call_type"))
	if !callType.IsValid() {
		return "", vacancycall.ErrWrongCallType
	}
	return callType, nil
}

// @Summary Создание
// @Tags Вакансия
// @Description Создание вакансии заказчиком, вакансия уходит на модерацию
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 vacancyapimodels.VacancyData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy [post]
func (c *vacancyApiController) create(ctx *fiber.Ctx) error {
	var payload vacancyapimodels.VacancyData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(config.Conf.Workflow.MaxPeopleCount); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	userID := middleware.GetUserID(ctx)
	id, err := vacancyhandler.Instance.Create(ctx.UserContext(), userID, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка создания вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Получение по ИД
// @Tags Вакансия
// @Description Получение по ИД
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=vacancyapimodels.VacancyView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id} [get]
func (c *vacancyApiController) get(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(c.vacancy(ctx)))
}

// @Summary Список
// @Tags Вакансия
// @Description Список. Заказчик видит только свои вакансии
// @Param	body body	 vacancyapimodels.VacancyFilter	true	"request filter body"
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]vacancyapimodels.VacancyView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/list [post]
func (c *vacancyApiController) list(ctx *fiber.Ctx) error {
	var payload vacancyapimodels.VacancyFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Pagination.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if !middleware.IsStaff(ctx) {
		payload.OwnerID = middleware.GetUserID(ctx)
	}
	list, rowCount, err := vacancyhandler.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка вакансий")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Модерация
// @Tags Вакансия
// @Description Одобрение (approved) или отклонение (rejected) вакансии сотрудником
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 vacancyapimodels.StatusChangeRequest	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/change_status [put]
func (c *vacancyApiController) changeStatus(ctx *fiber.Ctx) error {
	var payload vacancyapimodels.StatusChangeRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	err := vacancyhandler.Instance.Moderate(ctx.UserContext(), c.vacancy(ctx).ID, middleware.GetUserID(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения статуса вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление
// @Tags Вакансия
// @Description Удаление вакансии сотрудником: сообщения удаляются, участники исключаются, группа освобождается
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id} [delete]
func (c *vacancyApiController) delete(ctx *fiber.Ctx) error {
	err := vacancyhandler.Instance.Delete(ctx.UserContext(), c.vacancy(ctx).ID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Принудительное закрытие
// @Tags Вакансия
// @Description Закрытие вакансии сотрудником без проверки оплаты
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/close [put]
func (c *vacancyApiController) forceClose(ctx *fiber.Ctx) error {
	err := vacancyhandler.Instance.ForceClose(ctx.UserContext(), c.vacancy(ctx).ID, middleware.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка закрытия вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Очистка сообщений
// @Tags Вакансия
// @Description Удаление сообщений вакансии в группе и канале
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=vacancyapimodels.MessageDeleteStats}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/cleanup [post]
func (c *vacancyApiController) cleanup(ctx *fiber.Ctx) error {
	stats, err := vacancyhandler.Instance.CleanupMessages(ctx.UserContext(), c.vacancy(ctx).ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления сообщений вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(stats))
}

// @Summary История статусов
// @Tags Вакансия
// @Description История статусов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]vacancyapimodels.HistoryItem}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/history [get]
func (c *vacancyApiController) history(ctx *fiber.Ctx) error {
	list, err := vacancyhandler.Instance.History(c.vacancy(ctx).ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения истории вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Добор работников
// @Tags Вакансия
// @Description Повторная публикация вакансии для добора работников
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/refind [post]
func (c *vacancyApiController) refind(ctx *fiber.Ctx) error {
	if err := vacancycall.Instance.Refind(ctx.UserContext(), c.vacancy(ctx).ID); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка повторной публикации вакансии")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Отзыв
// @Tags Вакансия
// @Description Отзыв по вакансии, пересылается сотрудникам
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param	body body	 vacancyapimodels.FeedbackData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/feedback [post]
func (c *vacancyApiController) feedback(ctx *fiber.Ctx) error {
	var payload vacancyapimodels.FeedbackData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	id, err := vacancyhandler.Instance.Feedback(ctx.UserContext(), c.vacancy(ctx).ID, middleware.GetUserID(ctx), payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка сохранения отзыва")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Страница переклички
// @Tags Перекличка
// @Description Состояние вакансии перед подтверждением переклички
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   call_type      		path    string  				    	true         "start / after_start"
// @Success 200 {object} apimodels.Response{data=vacancyapimodels.PreCallView}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/pre_call/{call_type} [get]
func (c *vacancyApiController) preCall(ctx *fiber.Ctx) error {
	callType, err := c.callType(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := vacancycall.Instance.PreCall(ctx.UserContext(), c.vacancy(ctx).ID, callType)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения данных переклички")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Список переклички
// @Tags Перекличка
// @Description Участники переклички и их отметки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   call_type      		path    string  				    	true         "start / after_start"
// @Success 200 {object} apimodels.Response{data=vacancyapimodels.CallRoster}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/roster/{call_type} [get]
func (c *vacancyApiController) roster(ctx *fiber.Ctx) error {
	callType, err := c.callType(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	roster, err := vacancycall.Instance.Roster(ctx.UserContext(), c.vacancy(ctx).ID, callType)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка переклички")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(roster))
}

// @Summary Подтверждение переклички
// @Tags Перекличка
// @Description Заказчик отмечает вышедших на смену, остальные считаются не вышедшими
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   call_type      		path    string  				    	true         "start / after_start"
// @Param	body body	 vacancyapimodels.CallConfirmRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=vacancyapimodels.RosterResult}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/roster/{call_type} [put]
func (c *vacancyApiController) confirmRoster(ctx *fiber.Ctx) error {
	callType, err := c.callType(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload vacancyapimodels.CallConfirmRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := vacancycall.Instance.ConfirmRoster(ctx.UserContext(), c.vacancy(ctx).ID, callType, payload.UserIDs)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка подтверждения переклички")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Отчет о явке
// @Tags Вакансия
// @Description Выгрузка явки участников в xlsx
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/report [get]
func (c *vacancyApiController) report(ctx *fiber.Ctx) error {
	id := c.vacancy(ctx).ID
	buf, err := vacancyreport.Instance.Attendance(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования отчета")
	}
	ctx.Attachment(fmt.Sprintf("attendance-%s.xlsx", id))
	return ctx.Status(fiber.StatusOK).SendStream(buf, buf.Len())
}

// @Summary Архивирование отчета
// @Tags Вакансия
// @Description Сохранение отчета о явке в файловое хранилище
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 503 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/report/archive [post]
func (c *vacancyApiController) archiveReport(ctx *fiber.Ctx) error {
	key, err := vacancyreport.Instance.Archive(ctx.UserContext(), c.vacancy(ctx).ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка сохранения отчета")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(key))
}

// @Summary Платежи
// @Tags Оплата
// @Description Платежи по вакансии
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]dbmodels.Payment}
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/payments [get]
func (c *vacancyApiController) payments(ctx *fiber.Ctx) error {
	list, err := payment.Instance.ListByVacancy(c.vacancy(ctx).ID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения платежей")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Квитанция
// @Tags Оплата
// @Description Квитанция об оплате в pdf
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   payment_id     		path    string  				    	true         "payment ID"
// @Success 200 {file} file
// @Failure 400 {object} apimodels.Response
// @Failure 403
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/vacancy/{id}/payments/{payment_id}/receipt [get]
func (c *vacancyApiController) receipt(ctx *fiber.Ctx) error {
	paymentID, err := c.GetUUIDParam(ctx, "payment_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	body, err := payment.Instance.Receipt(ctx.UserContext(), c.vacancy(ctx).ID, paymentID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения квитанции")
	}
	ctx.Attachment(fmt.Sprintf("receipt-%s.pdf", paymentID))
	return ctx.Status(fiber.StatusOK).Send(body)
}
