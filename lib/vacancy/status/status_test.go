package vacancystatus

import (
	"context"
	"testing"

	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/repository/repotest"
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []eventbus.Event
}

func (h *recordingHandler) Update(ctx context.Context, event eventbus.Event, payload eventbus.Payload) error {
	h.events = append(h.events, event)
	return nil
}

func newService(t *testing.T) (*repotest.Repo, *recordingHandler, Provider) {
	repo := repotest.New()
	bus := eventbus.New(nil)
	handler := &recordingHandler{}
	for _, event := range eventbus.AllEvents {
		bus.Subscribe(event, handler)
	}
	return repo, handler, NewInstance(repo, bus)
}

func TestTransition(t *testing.T) {
	ctx := context.Background()
	actor := int64(1)
	t.Run("graph check", func(t *testing.T) {
		all := []models.VacancyStatus{
			models.VacancyStatusPending,
			models.VacancyStatusApproved,
			models.VacancyStatusActive,
			models.VacancyStatusClosed,
			models.VacancyStatusRejected,
		}
		allowed := map[models.VacancyStatus][]models.VacancyStatus{
			models.VacancyStatusPending:  {models.VacancyStatusApproved, models.VacancyStatusActive, models.VacancyStatusRejected},
			models.VacancyStatusApproved: {models.VacancyStatusActive, models.VacancyStatusClosed, models.VacancyStatusRejected},
			models.VacancyStatusActive:   {models.VacancyStatusClosed},
		}
		for _, from := range all {
			for _, to := range all {
				if from == to {
					continue
				}
				repo, _, service := newService(t)
				id := repo.AddVacancy(dbmodels.Vacancy{Status: from})
				vacancy := repo.Vacancy(id)

				changed, err := service.Transition(ctx, &vacancy, to, &actor, "")
				if contains(allowed[from], to) {
					require.NoError(t, err, "%v -> %v", from, to)
					require.True(t, changed)
					require.Equal(t, to, repo.Vacancy(id).Status)
					require.Len(t, repo.HistoryRecs, 1)
				} else {
					require.True(t, errors.Is(err, ErrTransitionNotAllowed), "%v -> %v", from, to)
					require.False(t, changed)
					require.Equal(t, from, repo.Vacancy(id).Status)
					require.Empty(t, repo.HistoryRecs)
				}
			}
		}
	})
	t.Run("same status is no-op check", func(t *testing.T) {
		repo, handler, service := newService(t)
		id := repo.AddVacancy(dbmodels.Vacancy{Status: models.VacancyStatusApproved})
		vacancy := repo.Vacancy(id)

		changed, err := service.Transition(ctx, &vacancy, models.VacancyStatusApproved, &actor, "")
		require.NoError(t, err)
		require.False(t, changed)
		require.Empty(t, repo.HistoryRecs)
		require.Empty(t, handler.events)
	})
	t.Run("events check", func(t *testing.T) {
		repo, handler, service := newService(t)
		id := repo.AddVacancy(dbmodels.Vacancy{Status: models.VacancyStatusPending})
		vacancy := repo.Vacancy(id)

		_, err := service.Transition(ctx, &vacancy, models.VacancyStatusApproved, &actor, "ок")
		require.NoError(t, err)
		_, err = service.Transition(ctx, &vacancy, models.VacancyStatusActive, nil, "")
		require.NoError(t, err)
		_, err = service.Transition(ctx, &vacancy, models.VacancyStatusClosed, nil, "")
		require.NoError(t, err)
		require.Equal(t, []eventbus.Event{eventbus.VacancyApproved}, handler.events)
		require.Len(t, repo.HistoryRecs, 3)
		require.Equal(t, "ок", repo.HistoryRecs[0].Comment)
		require.Equal(t, &actor, repo.HistoryRecs[0].ChangedBy)
	})
	t.Run("rejected event check", func(t *testing.T) {
		repo, handler, service := newService(t)
		id := repo.AddVacancy(dbmodels.Vacancy{Status: models.VacancyStatusPending})
		vacancy := repo.Vacancy(id)

		_, err := service.Transition(ctx, &vacancy, models.VacancyStatusRejected, &actor, "дубль")
		require.NoError(t, err)
		require.Equal(t, []eventbus.Event{eventbus.VacancyRejected}, handler.events)
	})
	t.Run("store failure keeps status check", func(t *testing.T) {
		repo, handler, service := newService(t)
		id := repo.AddVacancy(dbmodels.Vacancy{Status: models.VacancyStatusPending})
		vacancy := repo.Vacancy(id)
		repo.FailOn["Vacancies.UpdateStatus"] = errors.New("db down")

		changed, err := service.Transition(ctx, &vacancy, models.VacancyStatusApproved, &actor, "")
		require.Error(t, err)
		require.False(t, changed)
		require.Equal(t, models.VacancyStatusPending, vacancy.Status)
		require.Equal(t, models.VacancyStatusPending, repo.Vacancy(id).Status)
		require.Empty(t, handler.events)
	})
	t.Run("stale in-memory status check", func(t *testing.T) {
		repo, _, service := newService(t)
		id := repo.AddVacancy(dbmodels.Vacancy{Status: models.VacancyStatusClosed})
		stale := repo.Vacancy(id)
		stale.Status = models.VacancyStatusApproved

		_, err := service.Transition(ctx, &stale, models.VacancyStatusActive, nil, "")
		require.True(t, errors.Is(err, ErrTransitionNotAllowed))
		require.Equal(t, models.VacancyStatusClosed, repo.Vacancy(id).Status)
	})
}

func contains(list []models.VacancyStatus, status models.VacancyStatus) bool {
	for _, item := range list {
		if item == status {
			return true
		}
	}
	return false
}
