package vacancycall

import (
	"context"
	"fmt"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/lib/telegram/membership"
	"shift-tools-backend/lib/vacancy/formatter"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrVacancyNotFound = vacancystatus.ErrVacancyNotFound
	ErrNotMember       = errors.New("пользователь не является участником вакансии")
	ErrWrongCallType   = errors.New("некорректный тип переклички")
	ErrInvalidPayload  = errors.New("некорректные данные счета")
)

const (
	invoicePayloadPrefix = "invoice_payload"
	// DefaultPricePerWorker стоимость одного вышедшего работника, грн
	DefaultPricePerWorker int64 = 100
)

type Provider interface {
	// BeforeStart создает недостающие записи before_start и отправляет кнопку подтверждения только новым участникам
	BeforeStart(ctx context.Context, vacancy *dbmodels.Vacancy) (notified int, err error)
	ConfirmBeforeStart(ctx context.Context, vacancyID string, userID int64) error
	// CheckBeforeStartTimeouts удаляет из группы тех, кто не подтвердил готовность за timeout
	CheckBeforeStartTimeouts(ctx context.Context, vacancy *dbmodels.Vacancy, timeout time.Duration) (kicked int, err error)
	StartCall(ctx context.Context, vacancy *dbmodels.Vacancy) (started bool, err error)
	FinalCall(ctx context.Context, vacancy *dbmodels.Vacancy) (started bool, err error)
	ConfirmRoster(ctx context.Context, vacancyID string, callType models.CallType, userIDs []int64) (vacancyapimodels.RosterResult, error)
	Roster(ctx context.Context, vacancyID string, callType models.CallType) (*vacancyapimodels.CallRoster, error)
	PreCall(ctx context.Context, vacancyID string, callType models.CallType) (*vacancyapimodels.PreCallView, error)
	Refind(ctx context.Context, vacancyID string) error
	Invoice(vacancy dbmodels.Vacancy) notification.Invoice
	// CloseCheck проверка оплаты перед закрытием, выполняется один раз
	CloseCheck(ctx context.Context, vacancy *dbmodels.Vacancy) (checked bool, err error)
}

type Config struct {
	PricePerWorker int64
	Currency       string
	Now            func() time.Time
}

var Instance Provider

func NewHandler(repo repository.Provider, publisher eventbus.Publisher, notifier notification.Provider, members membership.Provider, cfg Config) {
	Instance = NewInstance(repo, publisher, notifier, members, cfg)
}

func NewInstance(repo repository.Provider, publisher eventbus.Publisher, notifier notification.Provider, members membership.Provider, cfg Config) Provider {
	if cfg.PricePerWorker <= 0 {
		cfg.PricePerWorker = DefaultPricePerWorker
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &impl{
		repo:       repo,
		publisher:  publisher,
		notifier:   notifier,
		membership: members,
		cfg:        cfg,
	}
}

type impl struct {
	repo       repository.Provider
	publisher  eventbus.Publisher
	notifier   notification.Provider
	membership membership.Provider
	cfg        Config
}

func (i impl) getLogger(vacancyID string, callType models.CallType) *log.Entry {
	logger := log.WithField("vacancy_id", vacancyID)
	if callType != "" {
		logger = logger.WithField("call_type", string(callType))
	}
	return logger
}

func (i impl) BeforeStart(ctx context.Context, vacancy *dbmodels.Vacancy) (int, error) {
	if vacancy == nil {
		return 0, ErrVacancyNotFound
	}
	logger := i.getLogger(vacancy.ID, models.CallTypeBeforeStart)
	list, err := i.repo.Members().ListMembers(vacancy.ID)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения участников вакансии")
	}
	notified := 0
	for _, member := range list {
		created, err := i.repo.Calls().CreateIfAbsent(member.ID, models.CallTypeBeforeStart, models.CallStatusSent)
		if err != nil {
			logger.WithField("user_id", member.UserID).WithError(err).Error("ошибка создания записи переклички")
			continue
		}
		if !created {
			continue
		}
		_, err = i.notifier.Notify(ctx, member.UserID, notification.Text{
			Text:   formatter.BeforeStartCall(),
			Markup: formatter.BeforeStartMarkup(vacancy.ID),
		})
		if err != nil {
			logger.WithField("user_id", member.UserID).WithError(err).Warn("не удалось отправить запрос подтверждения")
			continue
		}
		notified++
	}
	if notified > 0 {
		logger.WithField("notified", notified).Info("отправлены запросы подтверждения перед стартом")
	}
	return notified, nil
}

func (i impl) ConfirmBeforeStart(ctx context.Context, vacancyID string, userID int64) error {
	member, err := i.repo.Members().Get(vacancyID, userID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения участника вакансии")
	}
	if member == nil || member.Status != models.ChatMemberMember {
		return ErrNotMember
	}
	_, err = i.repo.Calls().CreateIfAbsent(member.ID, models.CallTypeBeforeStart, models.CallStatusConfirm)
	if err != nil {
		return errors.Wrap(err, "ошибка создания записи переклички")
	}
	_, err = i.repo.Calls().SetStatus([]string{member.ID}, models.CallTypeBeforeStart, models.CallStatusConfirm)
	if err != nil {
		return errors.Wrap(err, "ошибка подтверждения готовности")
	}
	i.getLogger(vacancyID, models.CallTypeBeforeStart).
		WithField("user_id", userID).
		Info("участник подтвердил готовность")
	return nil
}

func (i impl) CheckBeforeStartTimeouts(ctx context.Context, vacancy *dbmodels.Vacancy, timeout time.Duration) (int, error) {
	if vacancy == nil {
		return 0, ErrVacancyNotFound
	}
	logger := i.getLogger(vacancy.ID, models.CallTypeBeforeStart)
	if !vacancy.HasGroup() {
		logger.Warn("у вакансии нет группы, проверка подтверждений пропущена")
		return 0, nil
	}
	list, err := i.repo.Calls().ListByVacancy(vacancy.ID, models.CallTypeBeforeStart)
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения записей переклички")
	}
	deadline := i.cfg.Now().Add(-timeout)
	kicked := 0
	for _, call := range list {
		if call.Status == models.CallStatusConfirm || call.Status == models.CallStatusReject {
			continue
		}
		if call.CreatedAt.After(deadline) {
			continue
		}
		if call.VacancyUser == nil || call.VacancyUser.Status != models.ChatMemberMember {
			continue
		}
		userID := call.VacancyUser.UserID
		if err = i.membership.Kick(ctx, *vacancy.GroupID, userID); err != nil {
			logger.WithField("user_id", userID).WithError(err).Warn("не удалось удалить неподтвердившего участника")
			continue
		}
		if _, err = i.repo.Calls().SetStatus([]string{call.VacancyUserID}, models.CallTypeBeforeStart, models.CallStatusReject); err != nil {
			logger.WithField("user_id", userID).WithError(err).Error("ошибка обновления записи переклички")
		}
		kicked++
	}
	if kicked > 0 {
		logger.WithField("kicked", kicked).Info("удалены участники без подтверждения готовности")
	}
	return kicked, nil
}

func (i impl) StartCall(ctx context.Context, vacancy *dbmodels.Vacancy) (bool, error) {
	return i.runLatched(ctx, vacancy, dbmodels.FlagSentStartCall, eventbus.VacancyStartCall)
}

func (i impl) FinalCall(ctx context.Context, vacancy *dbmodels.Vacancy) (bool, error) {
	return i.runLatched(ctx, vacancy, dbmodels.FlagSentFinalCall, eventbus.VacancyAfterStartCall)
}

func (i impl) CloseCheck(ctx context.Context, vacancy *dbmodels.Vacancy) (bool, error) {
	if vacancy == nil {
		return false, ErrVacancyNotFound
	}
	var isPaid bool
	claimed, err := i.claim(vacancy.ID, dbmodels.FlagPaymentChecked, func(locked *dbmodels.Vacancy) {
		isPaid = locked.Workflow.IsPaid
	})
	if err != nil || !claimed {
		return false, err
	}
	vacancy.Workflow.Set(dbmodels.FlagPaymentChecked)
	vacancy.Workflow.IsPaid = isPaid
	event := eventbus.VacancyClosePaymentDoesNotExist
	if isPaid {
		event = eventbus.VacancyClose
	}
	i.getLogger(vacancy.ID, "").
		WithField("is_paid", isPaid).
		Info("проверка оплаты выполнена")
	i.publish(ctx, event, vacancy)
	return true, nil
}

// runLatched выставляет защелку фазы и публикует событие, только если защелка была свободна
func (i impl) runLatched(ctx context.Context, vacancy *dbmodels.Vacancy, flag dbmodels.WorkflowFlag, event eventbus.Event) (bool, error) {
	if vacancy == nil {
		return false, ErrVacancyNotFound
	}
	claimed, err := i.claim(vacancy.ID, flag, nil)
	if err != nil || !claimed {
		return false, err
	}
	vacancy.Workflow.Set(flag)
	i.getLogger(vacancy.ID, "").
		WithField("flag", string(flag)).
		Info("перекличка запущена")
	i.publish(ctx, event, vacancy)
	return true, nil
}

// claim под блокировкой строки вакансии выставляет флаг; onLocked видит заблокированное состояние
func (i impl) claim(vacancyID string, flag dbmodels.WorkflowFlag, onLocked func(locked *dbmodels.Vacancy)) (bool, error) {
	claimed := false
	err := i.repo.Transaction(func(tx repository.Provider) error {
		locked, err := tx.Vacancies().GetByIDForUpdate(vacancyID)
		if err != nil {
			return errors.Wrap(err, "ошибка получения вакансии")
		}
		if locked == nil {
			return ErrVacancyNotFound
		}
		if locked.Workflow.IsSet(flag) {
			return nil
		}
		if onLocked != nil {
			onLocked(locked)
		}
		claimed, err = tx.Vacancies().SetFlag(vacancyID, flag)
		return errors.Wrap(err, "ошибка установки флага вакансии")
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (i impl) publish(ctx context.Context, event eventbus.Event, vacancy *dbmodels.Vacancy) {
	if i.publisher == nil {
		return
	}
	i.publisher.Publish(ctx, event, eventbus.Payload{Vacancy: vacancy})
}

func (i impl) ConfirmRoster(ctx context.Context, vacancyID string, callType models.CallType, userIDs []int64) (vacancyapimodels.RosterResult, error) {
	result := vacancyapimodels.RosterResult{}
	if callType != models.CallTypeStart && callType != models.CallTypeAfterStart {
		return result, ErrWrongCallType
	}
	selected := map[int64]bool{}
	for _, userID := range userIDs {
		selected[userID] = true
	}
	var vacancy *dbmodels.Vacancy
	var confirmedIDs, rejectedIDs []string
	var confirmedUsers []int64
	// calls других перекличек читаются под блокировкой строки, иначе параллельное подтверждение затирается
	err := i.repo.Transaction(func(tx repository.Provider) error {
		locked, err := tx.Vacancies().GetByIDForUpdate(vacancyID)
		if err != nil {
			return errors.Wrap(err, "ошибка получения вакансии")
		}
		if locked == nil {
			return ErrVacancyNotFound
		}
		vacancy = locked
		list, err := tx.Members().ListMembers(vacancyID)
		if err != nil {
			return errors.Wrap(err, "ошибка получения участников вакансии")
		}
		for _, member := range list {
			if _, err = tx.Calls().CreateIfAbsent(member.ID, callType, models.CallStatusCreated); err != nil {
				return errors.Wrap(err, "ошибка создания записи переклички")
			}
			if selected[member.UserID] {
				confirmedIDs = append(confirmedIDs, member.ID)
				confirmedUsers = append(confirmedUsers, member.UserID)
			} else {
				rejectedIDs = append(rejectedIDs, member.ID)
			}
		}
		if _, err = tx.Calls().SetStatus(confirmedIDs, callType, models.CallStatusConfirm); err != nil {
			return errors.Wrap(err, "ошибка подтверждения участников")
		}
		if _, err = tx.Calls().SetStatus(rejectedIDs, callType, models.CallStatusReject); err != nil {
			return errors.Wrap(err, "ошибка отклонения участников")
		}
		if callType == models.CallTypeStart {
			if err = tx.Vacancies().SetStartPreCall(vacancyID, models.StartPreCallContinue); err != nil {
				return errors.Wrap(err, "ошибка сохранения решения по добору")
			}
			// вышедший на смену считается подтвердившим готовность
			if _, err = tx.Calls().SetStatus(confirmedIDs, models.CallTypeBeforeStart, models.CallStatusConfirm); err != nil {
				return errors.Wrap(err, "ошибка подтверждения готовности участников")
			}
		}
		calls := dbmodels.CallSelection{}
		for key, value := range vacancy.Workflow.Calls {
			calls[key] = value
		}
		if confirmedUsers == nil {
			confirmedUsers = []int64{}
		}
		calls[callType] = confirmedUsers
		if err = tx.Vacancies().SetCalls(vacancyID, calls); err != nil {
			return errors.Wrap(err, "ошибка сохранения результатов переклички")
		}
		vacancy.Workflow.Calls = calls
		return nil
	})
	if err != nil {
		return result, err
	}
	if callType == models.CallTypeStart {
		vacancy.Workflow.StartPreCall = models.StartPreCallContinue
	}
	result.Confirmed = len(confirmedIDs)
	result.Rejected = len(rejectedIDs)
	i.getLogger(vacancyID, callType).
		WithField("confirmed", result.Confirmed).
		WithField("rejected", result.Rejected).
		Info("перекличка подтверждена заказчиком")

	switch {
	case result.Rejected > 0 && callType == models.CallTypeStart:
		i.publish(ctx, eventbus.VacancyStartCallFail, vacancy)
	case result.Rejected > 0:
		i.publish(ctx, eventbus.VacancyAfterStartCallFail, vacancy)
	case callType == models.CallTypeAfterStart:
		i.publish(ctx, eventbus.VacancyAfterStartCallSuccess, vacancy)
	}
	return result, nil
}

func (i impl) Roster(ctx context.Context, vacancyID string, callType models.CallType) (*vacancyapimodels.CallRoster, error) {
	if !callType.IsValid() {
		return nil, ErrWrongCallType
	}
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}
	list, err := i.repo.Members().ListMembers(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения участников вакансии")
	}
	calls, err := i.repo.Calls().ListByVacancy(vacancyID, callType)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения записей переклички")
	}
	confirmed := map[string]bool{}
	for _, call := range calls {
		if call.Status == models.CallStatusConfirm {
			confirmed[call.VacancyUserID] = true
		}
	}
	roster := vacancyapimodels.CallRoster{
		CallType: callType,
		Members:  make([]vacancyapimodels.CallMember, 0, len(list)),
	}
	for _, member := range list {
		item := vacancyapimodels.CallMember{
			UserID:    member.UserID,
			Confirmed: confirmed[member.ID],
		}
		if member.User != nil {
			item.Name = member.User.DisplayName()
			item.Phone = member.User.Phone
		}
		roster.Members = append(roster.Members, item)
	}
	return &roster, nil
}

func (i impl) PreCall(ctx context.Context, vacancyID string, callType models.CallType) (*vacancyapimodels.PreCallView, error) {
	if !callType.IsValid() {
		return nil, ErrWrongCallType
	}
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return nil, ErrVacancyNotFound
	}
	count, err := i.repo.Members().CountMembers(vacancyID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка подсчета участников вакансии")
	}
	view := vacancyapimodels.PreCallView{
		MembersCount: count,
		PeopleCount:  vacancy.PeopleCount,
	}
	if callType != models.CallTypeStart {
		return &view, nil
	}
	if _, err = i.repo.Vacancies().SetFlag(vacancyID, dbmodels.FlagPreCallStart); err != nil {
		return nil, errors.Wrap(err, "ошибка установки флага вакансии")
	}
	preCall := vacancy.Workflow.StartPreCall
	if preCall == models.StartPreCallUnset || preCall == models.StartPreCallNeed {
		view.CanRefind = count < int64(vacancy.PeopleCount)
	}
	return &view, nil
}

func (i impl) Refind(ctx context.Context, vacancyID string) error {
	vacancy, err := i.repo.Vacancies().GetByID(vacancyID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения вакансии")
	}
	if vacancy == nil {
		return ErrVacancyNotFound
	}
	if err = i.repo.Vacancies().SetStartPreCall(vacancyID, models.StartPreCallNeed); err != nil {
		return errors.Wrap(err, "ошибка сохранения решения по добору")
	}
	vacancy.Workflow.StartPreCall = models.StartPreCallNeed
	i.getLogger(vacancyID, models.CallTypeStart).Info("заказчик запросил добор людей")
	i.publish(ctx, eventbus.VacancyRefind, vacancy)
	return nil
}

func (i impl) Invoice(vacancy dbmodels.Vacancy) notification.Invoice {
	workers := len(vacancy.Workflow.Calls[models.CallTypeAfterStart])
	amount := int64(workers) * i.cfg.PricePerWorker
	return notification.Invoice{
		Title:       formatter.InvoiceTitle(),
		Description: formatter.InvoiceDescription(vacancy),
		Payload:     InvoicePayload(vacancy.ID, amount),
		Label:       formatter.InvoiceLabel(workers),
		Amount:      amount * 100,
		Currency:    i.cfg.Currency,
	}
}

// InvoicePayload invoice_payload:{vacancy_id}:{amount}, amount в гривнах
func InvoicePayload(vacancyID string, amount int64) string {
	return fmt.Sprintf("%s:%s:%d", invoicePayloadPrefix, vacancyID, amount)
}

func ParseInvoicePayload(payload string) (vacancyID string, amount int64, err error) {
	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] != invoicePayloadPrefix || parts[1] == "" {
		return "", 0, errors.Wrap(ErrInvalidPayload, payload)
	}
	amount, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil || amount < 0 {
		return "", 0, errors.Wrap(ErrInvalidPayload, payload)
	}
	return parts[1], amount, nil
}
