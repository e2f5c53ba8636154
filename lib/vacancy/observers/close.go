package observers

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/telegram/membership"
	"shift-tools-backend/lib/vacancy/formatter"
	"shift-tools-backend/models"

	"github.com/pkg/errors"
)

func (h handlers) deleteMessages(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	stats := h.deps.Deleter.DeleteVacancyMessages(ctx, vacancy.ID)
	h.getLogger(vacancy.ID).
		WithField("total", stats.Total).
		WithField("deleted", stats.Deleted).
		WithField("failed", stats.Failed).
		Info("сообщения вакансии удалены")
	return nil
}

func (h handlers) kickMembers(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	if !vacancy.HasGroup() {
		h.getLogger(vacancy.ID).Info("у вакансии нет группы, удалять участников не из чего")
		return nil
	}
	result := h.deps.Membership.KickAll(ctx, *vacancy.GroupID, membership.DefaultKickStatuses)
	h.getLogger(vacancy.ID).
		WithField("total", result.Total).
		WithField("kicked", result.Kicked).
		WithField("failed", result.Failed).
		Info("участники удалены из группы")
	return nil
}

// releaseGroup возвращает группу в пул свободных и отвязывает ее от вакансии
func (h handlers) releaseGroup(ctx context.Context, payload eventbus.Payload) error {
	if payload.Vacancy == nil {
		return nil
	}
	stored, err := h.deps.Repo.Vacancies().GetByID(payload.Vacancy.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения вакансии")
	}
	vacancy := payload.Vacancy
	if stored != nil {
		vacancy = stored
	}
	if !vacancy.HasGroup() {
		return nil
	}
	groupID := *vacancy.GroupID
	if err = h.deps.Repo.UsersInGroups().DeleteByGroup(groupID); err != nil {
		return errors.Wrap(err, "ошибка очистки участников группы")
	}
	if err = h.deps.Repo.Groups().Release(groupID); err != nil {
		return errors.Wrap(err, "ошибка освобождения группы")
	}
	// удаленная вакансия уже не хранит ссылку на группу
	if stored != nil {
		if err = h.deps.Repo.Vacancies().SetGroup(vacancy.ID, nil); err != nil {
			return errors.Wrap(err, "ошибка отвязки группы от вакансии")
		}
	}
	h.getLogger(vacancy.ID).
		WithField("group_id", groupID).
		Info("группа освобождена")
	return nil
}

func (h handlers) closeStatus(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	_, err = h.deps.Status.Transition(ctx, vacancy, models.VacancyStatusClosed, payload.ActorID, "")
	return err
}

func (h handlers) closeNotice(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Вакансію закрито", notification.Text{
		Text:   formatter.ForStaffClosed(*vacancy),
		Markup: formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancy.ID),
	})
	return h.notifyOwner(ctx, vacancy, notification.Text{
		Text:   formatter.ForOwnerClosed(*vacancy),
		Markup: formatter.FeedbackMarkup(h.deps.BaseURL, vacancy.ID),
	})
}

func (h handlers) forceCloseNotice(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Вакансію закрито примусово", notification.Text{
		Text: formatter.ForStaffForceClosed(*vacancy),
	})
	return h.notifyOwner(ctx, vacancy, notification.Text{Text: formatter.ForOwnerForceClosed(*vacancy)})
}

// paymentMissing сотрудникам уходит ссылка на группу, чтобы разобраться с заказчиком
func (h handlers) paymentMissing(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Вакансію не оплачено", notification.Text{
		Text:           formatter.ForStaffPaymentMissing(*vacancy),
		Markup:         formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancy.ID),
		DisablePreview: true,
	})
	return nil
}
