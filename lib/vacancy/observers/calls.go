package observers

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/vacancy/formatter"
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
)

func (h handlers) beforeCall(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	notified, err := h.deps.Calls.BeforeStart(ctx, vacancy)
	if err != nil {
		return err
	}
	if notified > 0 {
		h.getLogger(vacancy.ID).
			WithField("notified", notified).
			Info("участникам отправлен запрос подтверждения")
	}
	return nil
}

func (h handlers) startCallOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{
		Text:   formatter.StartCall(),
		Markup: formatter.StartCallMarkup(h.deps.BaseURL, vacancy.ID),
	})
}

// startCallStatus смена началась: вакансия становится активной
func (h handlers) startCallStatus(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	if vacancy.Status != models.VacancyStatusApproved {
		return nil
	}
	_, err = h.deps.Status.Transition(ctx, vacancy, models.VacancyStatusActive, nil, "")
	return err
}

func (h handlers) rejectedUsers(vacancyID string, callType models.CallType) ([]dbmodels.User, error) {
	list, err := h.deps.Repo.Calls().ListByVacancy(vacancyID, callType)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения результатов переклички")
	}
	var result []dbmodels.User
	for _, call := range list {
		if call.Status != models.CallStatusReject || call.VacancyUser == nil {
			continue
		}
		user := dbmodels.User{ID: call.VacancyUser.UserID}
		if call.VacancyUser.User != nil {
			user = *call.VacancyUser.User
		}
		result = append(result, user)
	}
	return result, nil
}

func (h handlers) callFailStaff(ctx context.Context, payload eventbus.Payload, callType models.CallType) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	rejected, err := h.rejectedUsers(vacancy.ID, callType)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Працівники не вийшли на зміну", notification.Text{
		Text:           formatter.StaffCallFail(*vacancy, rejected, h.deps.BaseURL),
		Markup:         formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancy.ID),
		DisablePreview: true,
	})
	return nil
}

func (h handlers) startCallFailStaff(ctx context.Context, payload eventbus.Payload) error {
	return h.callFailStaff(ctx, payload, models.CallTypeStart)
}

// startCallFailMembers не вышедшим участникам отправляется ссылка на группу, чтобы они могли вернуться
func (h handlers) startCallFailMembers(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	rejected, err := h.rejectedUsers(vacancy.ID, models.CallTypeStart)
	if err != nil {
		return err
	}
	text := formatter.StartCallFail(*vacancy)
	failed := 0
	for _, user := range rejected {
		if _, err = h.deps.Notifier.Notify(ctx, user.ID, notification.Text{Text: text}); err != nil {
			failed++
			h.getLogger(vacancy.ID).
				WithField("user_id", user.ID).
				WithError(err).
				Warn("не удалось уведомить участника")
		}
	}
	if failed > 0 {
		return errors.Errorf("не доставлено %v из %v уведомлений", failed, len(rejected))
	}
	return nil
}

func (h handlers) finalCallOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{
		Text:   formatter.FinalCall(),
		Markup: formatter.FinalCallMarkup(h.deps.BaseURL, vacancy.ID),
	})
}

func (h handlers) finalCallInvoice(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	invoice := h.deps.Calls.Invoice(*vacancy)
	if invoice.Amount <= 0 {
		h.getLogger(vacancy.ID).Warn("нулевая сумма счета, счет не отправлен")
		return nil
	}
	if err = h.notifyOwner(ctx, vacancy, invoice); err != nil {
		return err
	}
	h.getLogger(vacancy.ID).
		WithField("amount", invoice.Amount).
		Info("заказчику отправлен счет")
	return nil
}

func (h handlers) finalCallFailStaff(ctx context.Context, payload eventbus.Payload) error {
	return h.callFailStaff(ctx, payload, models.CallTypeAfterStart)
}

func (h handlers) finalCallFailOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{Text: formatter.ForOwnerCallFail(*vacancy)})
}
