package vacancystatus

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTransitionNotAllowed = errors.New("переход в указанный статус недопустим")
	ErrVacancyNotFound      = errors.New("вакансия не найдена")
)

type Provider interface {
	// Transition переводит вакансию в newStatus. changed == false, если статус уже равен newStatus
	Transition(ctx context.Context, vacancy *dbmodels.Vacancy, newStatus models.VacancyStatus, changedBy *int64, comment string) (changed bool, err error)
}

var Instance Provider

func NewHandler(repo repository.Provider, publisher eventbus.Publisher) {
	Instance = NewInstance(repo, publisher)
}

func NewInstance(repo repository.Provider, publisher eventbus.Publisher) Provider {
	return &impl{
		repo:      repo,
		publisher: publisher,
	}
}

type impl struct {
	repo      repository.Provider
	publisher eventbus.Publisher
}

// события, которые публикуются после смены статуса
var statusEvents = map[models.VacancyStatus]eventbus.Event{
	models.VacancyStatusApproved: eventbus.VacancyApproved,
	models.VacancyStatusRejected: eventbus.VacancyRejected,
}

func (i impl) getLogger(vacancyID string) *log.Entry {
	return log.WithField("vacancy_id", vacancyID)
}

func (i impl) Transition(ctx context.Context, vacancy *dbmodels.Vacancy, newStatus models.VacancyStatus, changedBy *int64, comment string) (bool, error) {
	if vacancy == nil {
		return false, ErrVacancyNotFound
	}
	if vacancy.Status == newStatus {
		return false, nil
	}
	if !vacancy.Status.CanMoveTo(newStatus) {
		return false, errors.Wrapf(ErrTransitionNotAllowed, "%v -> %v", vacancy.Status, newStatus)
	}
	changed := false
	err := i.repo.Transaction(func(tx repository.Provider) error {
		locked, err := tx.Vacancies().GetByIDForUpdate(vacancy.ID)
		if err != nil {
			return errors.Wrap(err, "ошибка получения вакансии")
		}
		if locked == nil {
			return ErrVacancyNotFound
		}
		if locked.Status == newStatus {
			return nil
		}
		if !locked.Status.CanMoveTo(newStatus) {
			return errors.Wrapf(ErrTransitionNotAllowed, "%v -> %v", locked.Status, newStatus)
		}
		updated, err := tx.Vacancies().UpdateStatus(vacancy.ID, locked.Status, newStatus)
		if err != nil {
			return errors.Wrap(err, "ошибка обновления статуса вакансии")
		}
		if !updated {
			return errors.Wrap(ErrTransitionNotAllowed, "статус вакансии изменен параллельно")
		}
		_, err = tx.History().Create(dbmodels.VacancyStatusHistory{
			VacancyID: vacancy.ID,
			ChangedBy: changedBy,
			Status:    newStatus,
			Comment:   comment,
		})
		if err != nil {
			return errors.Wrap(err, "ошибка сохранения истории статусов")
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	vacancy.Status = newStatus
	if !changed {
		return false, nil
	}
	i.getLogger(vacancy.ID).
		WithField("status", string(newStatus)).
		Info("статус вакансии изменен")

	if event, ok := statusEvents[newStatus]; ok && i.publisher != nil {
		i.publisher.Publish(ctx, event, eventbus.Payload{Vacancy: vacancy, ActorID: changedBy})
	}
	return true, nil
}
