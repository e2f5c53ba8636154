// Package observers подписчики шины событий вакансии: уведомления, публикация, закрытие
package observers

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/lib/telegram/membership"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/recruitment"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Subscriber interface {
	Subscribe(event eventbus.Event, handler eventbus.Handler)
}

type Deps struct {
	Repo        repository.Provider
	Notifier    notification.Provider
	Membership  membership.Provider
	Deleter     messagedelete.Provider
	Status      vacancystatus.Provider
	Calls       vacancycall.Provider
	Recruitment recruitment.Provider
	BaseURL     string
}

// observer подписчик с именем для логов. Хранится по указателю, поэтому сравним для Unsubscribe
type observer struct {
	name string
	fn   func(ctx context.Context, payload eventbus.Payload) error
}

func (o *observer) Update(ctx context.Context, event eventbus.Event, payload eventbus.Payload) error {
	if payload.Vacancy == nil && payload.Feedback == nil {
		return errors.Errorf("%v: пустые данные события", o.name)
	}
	return errors.Wrap(o.fn(ctx, payload), o.name)
}

type subscription struct {
	event    eventbus.Event
	observer *observer
}

// Register подписывает обработчики на шину. Порядок подписки задает порядок выполнения
func Register(bus Subscriber, deps Deps) {
	for _, item := range subscriptions(deps) {
		bus.Subscribe(item.event, item.observer)
	}
}

func subscriptions(deps Deps) []subscription {
	h := handlers{deps: deps}
	on := func(event eventbus.Event, name string, fn func(ctx context.Context, payload eventbus.Payload) error) subscription {
		return subscription{event: event, observer: &observer{name: name, fn: fn}}
	}
	return []subscription{
		on(eventbus.VacancyCreated, "created_owner", h.createdOwner),
		on(eventbus.VacancyCreated, "created_staff", h.createdStaff),

		on(eventbus.VacancyApproved, "approved_group", h.approvedGroup),
		on(eventbus.VacancyApproved, "approved_owner", h.approvedOwner),
		on(eventbus.VacancyApproved, "approved_channel", h.approvedChannel),

		// отклонение одобренной вакансии возвращает группу в пул
		on(eventbus.VacancyRejected, "rejected_messages", h.deleteMessages),
		on(eventbus.VacancyRejected, "rejected_kick", h.kickMembers),
		on(eventbus.VacancyRejected, "rejected_release_group", h.releaseGroup),
		on(eventbus.VacancyRejected, "rejected_owner", h.rejectedOwner),

		on(eventbus.VacancyNewMember, "member_joined", h.memberJoined),
		on(eventbus.VacancyLeftMember, "member_left", h.memberLeft),

		on(eventbus.VacancyBeforeCall, "before_call", h.beforeCall),
		on(eventbus.VacancyStartCall, "start_call_owner", h.startCallOwner),
		on(eventbus.VacancyStartCall, "start_call_status", h.startCallStatus),
		on(eventbus.VacancyStartCallFail, "start_call_fail_staff", h.startCallFailStaff),
		on(eventbus.VacancyStartCallFail, "start_call_fail_members", h.startCallFailMembers),
		on(eventbus.VacancyAfterStartCall, "final_call_owner", h.finalCallOwner),
		on(eventbus.VacancyAfterStartCallSuccess, "final_call_invoice", h.finalCallInvoice),
		on(eventbus.VacancyAfterStartCallFail, "final_call_fail_staff", h.finalCallFailStaff),
		on(eventbus.VacancyAfterStartCallFail, "final_call_fail_owner", h.finalCallFailOwner),

		on(eventbus.VacancyClose, "close_messages", h.deleteMessages),
		on(eventbus.VacancyClose, "close_kick", h.kickMembers),
		on(eventbus.VacancyClose, "close_release_group", h.releaseGroup),
		on(eventbus.VacancyClose, "close_status", h.closeStatus),
		on(eventbus.VacancyClose, "close_notice", h.closeNotice),
		on(eventbus.VacancyCloseForcibly, "force_close_notice", h.forceCloseNotice),
		on(eventbus.VacancyClosePaymentDoesNotExist, "payment_missing", h.paymentMissing),

		on(eventbus.VacancyDelete, "delete_messages", h.deleteMessages),
		on(eventbus.VacancyDelete, "delete_kick", h.kickMembers),
		on(eventbus.VacancyDelete, "delete_release_group", h.releaseGroup),

		on(eventbus.VacancyRefind, "refind_channel", h.refindChannel),
		on(eventbus.VacancyRefind, "refind_staff", h.refindStaff),

		on(eventbus.VacancyNewFeedback, "feedback_staff", h.feedbackStaff),
	}
}

type handlers struct {
	deps Deps
}

func (h handlers) getLogger(vacancyID string) *log.Entry {
	return log.WithField("vacancy_id", vacancyID)
}

// load актуальное состояние вакансии со связями. Для удаленной вакансии возвращаются данные события
func (h handlers) load(payload eventbus.Payload) (*dbmodels.Vacancy, error) {
	if payload.Vacancy == nil {
		return nil, vacancystatus.ErrVacancyNotFound
	}
	vacancy, err := h.deps.Repo.Vacancies().GetByID(payload.Vacancy.ID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return payload.Vacancy, nil
	}
	return vacancy, nil
}

func (h handlers) notifyOwner(ctx context.Context, vacancy *dbmodels.Vacancy, msg notification.Message) error {
	if vacancy.OwnerID == 0 {
		return errors.New("у вакансии нет заказчика")
	}
	_, err := h.deps.Notifier.Notify(ctx, vacancy.OwnerID, msg)
	return err
}

func (h handlers) notifyStaff(ctx context.Context, vacancyID, subject string, msg notification.Message) {
	result := h.deps.Notifier.NotifyStaff(ctx, subject, msg)
	h.getLogger(vacancyID).
		WithField("sent", result.Sent).
		WithField("failed", result.Failed).
		Info(subject)
}
