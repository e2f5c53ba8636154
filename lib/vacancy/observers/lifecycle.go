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

func (h handlers) createdOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{Text: formatter.ForOwnerCreated(*vacancy)})
}

func (h handlers) createdStaff(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Нова заявка на модерацію", notification.Text{
		Text:   formatter.ForStaff(*vacancy),
		Markup: formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancy.ID),
	})
	return nil
}

// approvedGroup пост в группе вакансии отправляется один раз за время жизни вакансии
func (h handlers) approvedGroup(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	if !vacancy.HasGroup() {
		return errors.New("у одобренной вакансии нет группы")
	}
	claimed, err := h.deps.Repo.Vacancies().SetFlag(vacancy.ID, dbmodels.FlagSentInGroup)
	if err != nil {
		return errors.Wrap(err, "ошибка установки признака публикации в группе")
	}
	if !claimed {
		return nil
	}
	_, err = h.deps.Notifier.Notify(ctx, *vacancy.GroupID, notification.Text{
		Text:   formatter.ForGroup(*vacancy),
		Markup: formatter.FeedbackMarkup(h.deps.BaseURL, vacancy.ID),
	}, notification.WithVacancy(vacancy.ID, notification.ChatKindGroup))
	if err != nil {
		return err
	}
	h.getLogger(vacancy.ID).Info("вакансия опубликована в группе")
	return nil
}

func (h handlers) approvedOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{Text: formatter.ForOwnerApproved(*vacancy)})
}

func (h handlers) approvedChannel(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.deps.Recruitment.PublishToChannel(ctx, vacancy)
}

func (h handlers) rejectedOwner(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	comment := ""
	list, err := h.deps.Repo.History().List(vacancy.ID)
	if err != nil {
		h.getLogger(vacancy.ID).WithError(err).Warn("ошибка получения истории статусов")
	}
	for idx := len(list) - 1; idx >= 0; idx-- {
		if list[idx].Status == models.VacancyStatusRejected {
			comment = list[idx].Comment
			break
		}
	}
	return h.notifyOwner(ctx, vacancy, notification.Text{Text: formatter.ForOwnerRejected(*vacancy, comment)})
}

func (h handlers) memberJoined(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.deps.Recruitment.OnMemberJoined(ctx, vacancy)
}

func (h handlers) memberLeft(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	return h.deps.Recruitment.OnMemberLeft(ctx, vacancy)
}

func (h handlers) refindChannel(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	if !vacancy.Status.IsLive() {
		return nil
	}
	stats := h.deps.Deleter.DeleteChannelMessages(ctx, vacancy.ID)
	if stats.Failed > 0 {
		h.getLogger(vacancy.ID).
			WithField("failed", stats.Failed).
			Warn("не все сообщения вакансии удалены из канала")
	}
	return h.deps.Recruitment.PublishToChannel(ctx, vacancy)
}

func (h handlers) refindStaff(ctx context.Context, payload eventbus.Payload) error {
	vacancy, err := h.load(payload)
	if err != nil {
		return err
	}
	h.notifyStaff(ctx, vacancy.ID, "Додатковий пошук працівників", notification.Text{
		Text:   formatter.ForStaffRefind(*vacancy),
		Markup: formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancy.ID),
	})
	return nil
}

func (h handlers) feedbackStaff(ctx context.Context, payload eventbus.Payload) error {
	if payload.Feedback == nil {
		return nil
	}
	msg := notification.Text{Text: formatter.ForStaffFeedback(*payload.Feedback)}
	vacancyID := payload.VacancyID()
	if vacancyID != "" {
		msg.Markup = formatter.StaffVacancyMarkup(h.deps.BaseURL, vacancyID)
	}
	h.notifyStaff(ctx, vacancyID, "Новий відгук", msg)
	return nil
}
