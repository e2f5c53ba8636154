package vacancyhandler

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/repository"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoAvailableGroup     = errors.New("нет свободной группы для вакансии")
	ErrVacancyNotFound      = vacancystatus.ErrVacancyNotFound
	ErrTransitionNotAllowed = vacancystatus.ErrTransitionNotAllowed
	ErrOwnerNotFound        = errors.New("заказчик не найден")
)

const DefaultMaxPeopleCount = 20

type Provider interface {
	Create(ctx context.Context, ownerID int64, data vacancyapimodels.VacancyData) (id string, err error)
	GetByID(id string) (item vacancyapimodels.VacancyView, err error)
	List(filter vacancyapimodels.VacancyFilter) (list []vacancyapimodels.VacancyView, rowCount int64, err error)
	// Moderate одобрение (с выделением группы) или отклонение вакансии сотрудником
	Moderate(ctx context.Context, id string, actorID int64, req vacancyapimodels.StatusChangeRequest) error
	Delete(ctx context.Context, id string, actorID int64) error
	// ForceClose закрытие вакансии сотрудником без проверки оплаты
	ForceClose(ctx context.Context, id string, actorID int64) error
	Feedback(ctx context.Context, id string, userID int64, data vacancyapimodels.FeedbackData) (feedbackID string, err error)
	History(id string) (list []vacancyapimodels.HistoryItem, err error)
	CleanupMessages(ctx context.Context, id string) (vacancyapimodels.MessageDeleteStats, error)
}

type Config struct {
	MaxPeopleCount int
	Location       *time.Location
	Now            func() time.Time
}

var Instance Provider

func NewHandler(repo repository.Provider, publisher eventbus.Publisher, status vacancystatus.Provider, deleter messagedelete.Provider, cfg Config) {
	Instance = NewInstance(repo, publisher, status, deleter, cfg)
}

func NewInstance(repo repository.Provider, publisher eventbus.Publisher, status vacancystatus.Provider, deleter messagedelete.Provider, cfg Config) Provider {
	if cfg.MaxPeopleCount <= 0 {
		cfg.MaxPeopleCount = DefaultMaxPeopleCount
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &impl{
		repo:      repo,
		publisher: publisher,
		status:    status,
		deleter:   deleter,
		cfg:       cfg,
	}
}

type impl struct {
	repo      repository.Provider
	publisher eventbus.Publisher
	status    vacancystatus.Provider
	deleter   messagedelete.Provider
	cfg       Config
}

func (i impl) getLogger(vacancyID string, userID int64) *log.Entry {
	logger := log.NewEntry(log.StandardLogger())
	if vacancyID != "" {
		logger = logger.WithField("vacancy_id", vacancyID)
	}
	if userID != 0 {
		logger = logger.WithField("user_id", userID)
	}
	return logger
}

func (i impl) publish(ctx context.Context, event eventbus.Event, payload eventbus.Payload) {
	if i.publisher == nil {
		return
	}
	i.publisher.Publish(ctx, event, payload)
}

func (i impl) get(id string) (*dbmodels.Vacancy, error) {
	rec, err := i.repo.Vacancies().GetByID(id)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения вакансии")
	}
	if rec == nil {
		return nil, ErrVacancyNotFound
	}
	return rec, nil
}

func (i impl) Create(ctx context.Context, ownerID int64, data vacancyapimodels.VacancyData) (string, error) {
	logger := i.getLogger("", ownerID)
	if err := data.Validate(i.cfg.MaxPeopleCount); err != nil {
		return "", err
	}
	owner, err := i.repo.Users().GetByID(ownerID)
	if err != nil {
		return "", errors.Wrap(err, "ошибка получения заказчика")
	}
	if owner == nil || !owner.IsActive {
		return "", ErrOwnerNotFound
	}
	rec := dbmodels.Vacancy{
		OwnerID:       ownerID,
		Gender:        data.Gender,
		PeopleCount:   data.PeopleCount,
		HasPassport:   data.HasPassport,
		Address:       data.Address,
		MapLink:       data.MapLink,
		Date:          data.ResolveDate(i.cfg.Now().In(i.cfg.Location)),
		StartTime:     data.StartTime,
		EndTime:       data.EndTime,
		PaymentAmount: data.PaymentAmount,
		PaymentUnit:   data.PaymentUnit,
		PaymentMethod: data.PaymentMethod,
		Skills:        data.Skills,
		DateChoice:    data.DateChoice,
		Status:        models.VacancyStatusPending,
	}
	id, err := i.repo.Vacancies().Create(rec)
	if err != nil {
		return "", errors.Wrap(err, "ошибка создания вакансии")
	}
	rec.ID = id
	rec.Owner = owner
	logger.
		WithField("vacancy_id", id).
		Info("создана вакансия")
	i.publish(ctx, eventbus.VacancyCreated, eventbus.Payload{Vacancy: &rec, ActorID: &ownerID})
	return id, nil
}

func (i impl) GetByID(id string) (vacancyapimodels.VacancyView, error) {
	rec, err := i.get(id)
	if err != nil {
		return vacancyapimodels.VacancyView{}, err
	}
	count, err := i.repo.Members().CountMembers(id)
	if err != nil {
		return vacancyapimodels.VacancyView{}, errors.Wrap(err, "ошибка подсчета участников вакансии")
	}
	return rec.ToModel(count), nil
}

func (i impl) List(filter vacancyapimodels.VacancyFilter) ([]vacancyapimodels.VacancyView, int64, error) {
	rowCount, err := i.repo.Vacancies().ListCount(filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "ошибка подсчета вакансий")
	}
	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	if int64(offset) > rowCount {
		return []vacancyapimodels.VacancyView{}, rowCount, nil
	}
	recList, err := i.repo.Vacancies().List(filter)
	if err != nil {
		return nil, 0, errors.Wrap(err, "ошибка получения списка вакансий")
	}
	result := make([]vacancyapimodels.VacancyView, 0, len(recList))
	for _, rec := range recList {
		count, err := i.repo.Members().CountMembers(rec.ID)
		if err != nil {
			i.getLogger(rec.ID, 0).
				WithError(err).
				Error("ошибка подсчета участников вакансии")
		}
		result = append(result, rec.ToModel(count))
	}
	return result, rowCount, nil
}

func (i impl) Moderate(ctx context.Context, id string, actorID int64, req vacancyapimodels.StatusChangeRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	switch req.Status {
	case models.VacancyStatusApproved:
		return i.approve(ctx, id, actorID, req.Comment)
	case models.VacancyStatusRejected:
		rec, err := i.get(id)
		if err != nil {
			return err
		}
		_, err = i.status.Transition(ctx, rec, models.VacancyStatusRejected, &actorID, req.Comment)
		return err
	}
	return errors.Wrapf(ErrTransitionNotAllowed, "модерация не переводит в статус %v", req.Status)
}

// approve без свободной группы вакансия остается на модерации
func (i impl) approve(ctx context.Context, id string, actorID int64, comment string) error {
	logger := i.getLogger(id, actorID)
	var leased *int64
	noop := false
	err := i.repo.Transaction(func(tx repository.Provider) error {
		locked, err := tx.Vacancies().GetByIDForUpdate(id)
		if err != nil {
			return errors.Wrap(err, "ошибка получения вакансии")
		}
		if locked == nil {
			return ErrVacancyNotFound
		}
		if locked.Status == models.VacancyStatusApproved {
			noop = true
			return nil
		}
		if !locked.Status.CanMoveTo(models.VacancyStatusApproved) {
			return errors.Wrapf(ErrTransitionNotAllowed, "%v -> %v", locked.Status, models.VacancyStatusApproved)
		}
		if locked.HasGroup() {
			return nil
		}
		group, err := tx.Groups().LeaseAny()
		if err != nil {
			return errors.Wrap(err, "ошибка выделения группы")
		}
		if group == nil {
			return ErrNoAvailableGroup
		}
		groupID := group.ID
		if err = tx.Vacancies().SetGroup(id, &groupID); err != nil {
			return errors.Wrap(err, "ошибка привязки группы к вакансии")
		}
		leased = &groupID
		return nil
	})
	if err != nil {
		return err
	}
	if noop {
		return nil
	}
	rec, err := i.get(id)
	if err != nil {
		return err
	}
	if _, err = i.status.Transition(ctx, rec, models.VacancyStatusApproved, &actorID, comment); err != nil {
		if leased != nil {
			i.releaseGroup(id, *leased)
		}
		return err
	}
	logger.
		WithField("group_id", *rec.GroupID).
		Info("вакансия одобрена")
	return nil
}

func (i impl) releaseGroup(id string, groupID int64) {
	logger := i.getLogger(id, 0).WithField("group_id", groupID)
	if err := i.repo.Vacancies().SetGroup(id, nil); err != nil {
		logger.WithError(err).Error("ошибка отвязки группы от вакансии")
	}
	if err := i.repo.Groups().Release(groupID); err != nil {
		logger.WithError(err).Error("ошибка освобождения группы")
	}
}

func (i impl) Delete(ctx context.Context, id string, actorID int64) error {
	rec, err := i.get(id)
	if err != nil {
		return err
	}
	// подписчики чистят сообщения и группу, пока вакансия еще в БД
	i.publish(ctx, eventbus.VacancyDelete, eventbus.Payload{Vacancy: rec, ActorID: &actorID})
	if err = i.repo.Vacancies().Delete(id); err != nil {
		return errors.Wrap(err, "ошибка удаления вакансии")
	}
	i.getLogger(id, actorID).Info("удалена вакансия")
	return nil
}

func (i impl) ForceClose(ctx context.Context, id string, actorID int64) error {
	rec, err := i.get(id)
	if err != nil {
		return err
	}
	if !rec.Status.IsLive() {
		return errors.Wrapf(ErrTransitionNotAllowed, "%v -> %v", rec.Status, models.VacancyStatusClosed)
	}
	payload := eventbus.Payload{Vacancy: rec, ActorID: &actorID}
	i.publish(ctx, eventbus.VacancyClose, payload)
	i.publish(ctx, eventbus.VacancyCloseForcibly, payload)
	i.getLogger(id, actorID).Info("вакансия закрыта принудительно")
	return nil
}

func (i impl) Feedback(ctx context.Context, id string, userID int64, data vacancyapimodels.FeedbackData) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	rec, err := i.get(id)
	if err != nil {
		return "", err
	}
	vacancyID := rec.ID
	feedback := dbmodels.UserFeedback{
		UserID:    userID,
		VacancyID: &vacancyID,
		Text:      data.Text,
	}
	feedbackID, err := i.repo.Feedback().Create(feedback)
	if err != nil {
		return "", errors.Wrap(err, "ошибка сохранения отзыва")
	}
	feedback.ID = feedbackID
	i.publish(ctx, eventbus.VacancyNewFeedback, eventbus.Payload{Vacancy: rec, Feedback: &feedback, ActorID: &userID})
	return feedbackID, nil
}

func (i impl) History(id string) ([]vacancyapimodels.HistoryItem, error) {
	if _, err := i.get(id); err != nil {
		return nil, err
	}
	list, err := i.repo.History().List(id)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения истории статусов")
	}
	result := make([]vacancyapimodels.HistoryItem, 0, len(list))
	for _, rec := range list {
		result = append(result, vacancyapimodels.HistoryItem{
			Status:    rec.Status,
			ChangedBy: rec.ChangedBy,
			Comment:   rec.Comment,
			CreatedAt: rec.CreatedAt,
		})
	}
	return result, nil
}

func (i impl) CleanupMessages(ctx context.Context, id string) (vacancyapimodels.MessageDeleteStats, error) {
	if _, err := i.get(id); err != nil {
		return vacancyapimodels.MessageDeleteStats{}, err
	}
	stats := i.deleter.DeleteVacancyMessages(ctx, id)
	i.getLogger(id, 0).
		WithField("total", stats.Total).
		WithField("deleted", stats.Deleted).
		WithField("failed", stats.Failed).
		Info("сообщения вакансии удалены вручную")
	return stats, nil
}
