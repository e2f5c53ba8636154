package controllers

import (
	"shift-tools-backend/lib/payment"
	vacancyhandler "shift-tools-backend/lib/vacancy"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	vacancyreport "shift-tools-backend/lib/vacancy/report"
	vacancytasks "shift-tools-backend/lib/vacancy/tasks"
	"shift-tools-backend/middleware"
	apimodels "shift-tools-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("ошибка распознавания запроса")
		return errors.New("не удалось получить данные из запроса")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetUUIDParam(ctx, "id")
}

func (c *BaseAPIController) GetUUIDParam(ctx *fiber.Ctx, name string) (string, error) {
	value := ctx.Params(name)
	if _, err := uuid.Parse(value); err != nil {
		return "", errors.Errorf("некорректный идентификатор %s", name)
	}
	return value, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	logger := log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
	if userID := middleware.GetUserID(ctx); userID != 0 {
		logger = logger.WithField("user_id", userID)
	}
	if requestID := ctx.GetRespHeader(fiber.HeaderXRequestID); requestID != "" {
		logger = logger.WithField("request_id", requestID)
	}
	return logger
}

// errorStatuses ошибки бизнес-логики, которые возвращаются клиенту как есть
var errorStatuses = []struct {
	err    error
	status int
}{
	{vacancyhandler.ErrVacancyNotFound, fiber.StatusNotFound},
	{payment.ErrPaymentNotFound, fiber.StatusNotFound},
	{vacancyhandler.ErrTransitionNotAllowed, fiber.StatusConflict},
	{vacancyhandler.ErrNoAvailableGroup, fiber.StatusConflict},
	{vacancyhandler.ErrOwnerNotFound, fiber.StatusBadRequest},
	{vacancycall.ErrNotMember, fiber.StatusBadRequest},
	{vacancycall.ErrWrongCallType, fiber.StatusBadRequest},
	{vacancyreport.ErrNoStorage, fiber.StatusServiceUnavailable},
	{vacancytasks.ErrUnknownTask, fiber.StatusNotFound},
}

// SendError ответ с ошибкой: известные ошибки с их текстом, остальные как 500 с сообщением msg
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	for _, item := range errorStatuses {
		if errors.Is(err, item.err) {
			logger.WithError(err).Warn(msg)
			return ctx.Status(item.status).JSON(apimodels.NewError(item.err.Error()))
		}
	}
	logger.WithError(err).Error(msg)
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(msg))
}

// CanAccessVacancy сотрудник видит все вакансии, заказчик только свои
func (c *BaseAPIController) CanAccessVacancy(ctx *fiber.Ctx, ownerID int64) bool {
	return middleware.IsStaff(ctx) || middleware.GetUserID(ctx) == ownerID
}
