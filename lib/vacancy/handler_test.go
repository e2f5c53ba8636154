package vacancyhandler

import (
	"context"
	"testing"
	"time"

	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/repository/repotest"
	"shift-tools-backend/lib/telegram/client/tgclienttest"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	apimodels "shift-tools-backend/models/api"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	ownerID int64 = 500
	staffID int64 = 900
	groupID int64 = -300

	groupLink = "https://t.me/+group"
)

type published struct {
	event   eventbus.Event
	payload eventbus.Payload
	// stored вакансия еще была в БД на момент доставки события
	stored bool
}

type recordingHandler struct {
	repo   *repotest.Repo
	events []published
}

func (h *recordingHandler) Update(ctx context.Context, event eventbus.Event, payload eventbus.Payload) error {
	_, stored := h.repo.VacancyRecs[payload.VacancyID()]
	h.events = append(h.events, published{event: event, payload: payload, stored: stored})
	return nil
}

func (h *recordingHandler) names() []eventbus.Event {
	result := make([]eventbus.Event, 0, len(h.events))
	for _, item := range h.events {
		result = append(result, item.event)
	}
	return result
}

type testEnv struct {
	repo     *repotest.Repo
	client   *tgclienttest.Fake
	recorder *recordingHandler
	service  Provider
}

func newEnv(t *testing.T) *testEnv {
	now := time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC)
	env := &testEnv{
		repo:   repotest.New(),
		client: tgclienttest.New(),
	}
	env.repo.Now = func() time.Time { return now }
	env.repo.AddUser(dbmodels.User{ID: ownerID, FullName: "Іван Петренко", City: "Київ", IsActive: true})
	env.repo.AddUser(dbmodels.User{ID: staffID, IsStaff: true, IsActive: true})
	env.recorder = &recordingHandler{repo: env.repo}
	bus := eventbus.New(nil)
	for _, event := range eventbus.AllEvents {
		bus.Subscribe(event, env.recorder)
	}
	env.service = NewInstance(
		env.repo,
		bus,
		vacancystatus.NewInstance(env.repo, bus),
		messagedelete.NewInstance(env.client, env.repo.Messages()),
		Config{
			MaxPeopleCount: 10,
			Location:       time.UTC,
			Now:            func() time.Time { return now },
		},
	)
	return env
}

func (e *testEnv) addVacancy(status models.VacancyStatus, group *int64) string {
	return e.repo.AddVacancy(dbmodels.Vacancy{
		OwnerID:     ownerID,
		Gender:      models.GenderAny,
		PeopleCount: 3,
		Date:        time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC),
		StartTime:   "08:00",
		EndTime:     "17:00",
		Address:     "Хрещатик, 1",
		Status:      status,
		GroupID:     group,
	})
}

func validData() vacancyapimodels.VacancyData {
	return vacancyapimodels.VacancyData{
		Gender:        models.GenderMale,
		PeopleCount:   3,
		Address:       "Хрещатик, 1",
		DateChoice:    models.DateChoiceTomorrow,
		StartTime:     "08:00",
		EndTime:       "17:00",
		PaymentAmount: 150,
		PaymentUnit:   models.PaymentUnitHour,
		PaymentMethod: models.PaymentMethodCash,
	}
}

func TestCreate(t *testing.T) {
	t.Run("pending vacancy check", func(t *testing.T) {
		env := newEnv(t)
		id, err := env.service.Create(context.Background(), ownerID, validData())
		require.NoError(t, err)
		require.NotEmpty(t, id)

		rec := env.repo.Vacancy(id)
		require.Equal(t, models.VacancyStatusPending, rec.Status)
		require.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC), rec.Date)
		require.Nil(t, rec.GroupID)

		require.Equal(t, []eventbus.Event{eventbus.VacancyCreated}, env.recorder.names())
		payload := env.recorder.events[0].payload
		require.Equal(t, id, payload.VacancyID())
		require.NotNil(t, payload.Vacancy.Owner)
		require.Equal(t, ownerID, *payload.ActorID)
	})
	t.Run("people count over limit check", func(t *testing.T) {
		env := newEnv(t)
		data := validData()
		data.PeopleCount = 11
		_, err := env.service.Create(context.Background(), ownerID, data)
		require.Error(t, err)
		require.Empty(t, env.repo.VacancyRecs)
		require.Empty(t, env.recorder.events)
	})
	t.Run("unknown owner check", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.service.Create(context.Background(), 777, validData())
		require.ErrorIs(t, err, ErrOwnerNotFound)
	})
	t.Run("store failure check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.FailOn["Vacancies.Create"] = errors.New("connection reset")
		_, err := env.service.Create(context.Background(), ownerID, validData())
		require.Error(t, err)
		require.Empty(t, env.recorder.events)
	})
}

func TestGetAndList(t *testing.T) {
	t.Run("get by id check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusPending, nil)
		env.repo.AddMembers(id, 1, 2)

		view, err := env.service.GetByID(id)
		require.NoError(t, err)
		require.Equal(t, id, view.ID)
		require.Equal(t, int64(2), view.MembersCount)
		require.Equal(t, "Іван Петренко", view.OwnerName)
		require.Equal(t, "2024-05-11", view.Date)
	})
	t.Run("get missing check", func(t *testing.T) {
		env := newEnv(t)
		_, err := env.service.GetByID("missing")
		require.ErrorIs(t, err, ErrVacancyNotFound)
	})
	t.Run("list paging check", func(t *testing.T) {
		env := newEnv(t)
		for idx := 0; idx < 3; idx++ {
			env.addVacancy(models.VacancyStatusPending, nil)
		}
		env.addVacancy(models.VacancyStatusClosed, nil)

		filter := vacancyapimodels.VacancyFilter{
			Pagination: apimodels.Pagination{Limit: 2, Page: 1},
			Statuses:   []models.VacancyStatus{models.VacancyStatusPending},
		}
		list, rowCount, err := env.service.List(filter)
		require.NoError(t, err)
		require.Equal(t, int64(3), rowCount)
		require.Len(t, list, 2)

		filter.Page = 5
		list, rowCount, err = env.service.List(filter)
		require.NoError(t, err)
		require.Equal(t, int64(3), rowCount)
		require.Empty(t, list)
	})
}

func TestModerate(t *testing.T) {
	t.Run("approve leases group check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.AddGroup(dbmodels.Group{ID: groupID, InviteLink: groupLink})
		id := env.addVacancy(models.VacancyStatusPending, nil)

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved})
		require.NoError(t, err)
		rec := env.repo.Vacancy(id)
		require.Equal(t, models.VacancyStatusApproved, rec.Status)
		require.Equal(t, groupID, *rec.GroupID)
		require.Equal(t, models.GroupStatusProcess, env.repo.GroupRecs[groupID].Status)
		require.Equal(t, []eventbus.Event{eventbus.VacancyApproved}, env.recorder.names())
	})
	t.Run("approve twice check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.AddGroup(dbmodels.Group{ID: groupID, InviteLink: groupLink})
		env.repo.AddGroup(dbmodels.Group{ID: groupID - 1, InviteLink: groupLink})
		id := env.addVacancy(models.VacancyStatusPending, nil)
		req := vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved}

		require.NoError(t, env.service.Moderate(context.Background(), id, staffID, req))
		require.NoError(t, env.service.Moderate(context.Background(), id, staffID, req))
		require.Len(t, env.recorder.events, 1)
		available := 0
		for _, group := range env.repo.GroupRecs {
			if group.Status == models.GroupStatusAvailable {
				available++
			}
		}
		require.Equal(t, 1, available)
	})
	t.Run("no available group check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.AddGroup(dbmodels.Group{ID: groupID, Status: models.GroupStatusProcess})
		id := env.addVacancy(models.VacancyStatusPending, nil)

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved})
		require.ErrorIs(t, err, ErrNoAvailableGroup)
		require.Equal(t, models.VacancyStatusPending, env.repo.Vacancy(id).Status)
		require.Empty(t, env.recorder.events)
	})
	t.Run("group without invite link is not leased check", func(t *testing.T) {
		env := newEnv(t)
		// бота разжаловали, ссылка на вступление сброшена
		env.repo.AddGroup(dbmodels.Group{ID: groupID})
		id := env.addVacancy(models.VacancyStatusPending, nil)

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved})
		require.ErrorIs(t, err, ErrNoAvailableGroup)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
		require.Nil(t, env.repo.Vacancy(id).GroupID)
	})
	t.Run("failed transition releases group check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.AddGroup(dbmodels.Group{ID: groupID, InviteLink: groupLink})
		id := env.addVacancy(models.VacancyStatusPending, nil)
		env.repo.FailOn["History.Create"] = errors.New("connection reset")

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved})
		require.Error(t, err)
		require.Nil(t, env.repo.Vacancy(id).GroupID)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
	})
	t.Run("reject with comment check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusPending, nil)

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{
			Status:  models.VacancyStatusRejected,
			Comment: "немає адреси",
		})
		require.NoError(t, err)
		require.Equal(t, models.VacancyStatusRejected, env.repo.Vacancy(id).Status)
		history, err := env.service.History(id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, "немає адреси", history[0].Comment)
		require.Equal(t, staffID, *history[0].ChangedBy)
	})
	t.Run("closed vacancy check", func(t *testing.T) {
		env := newEnv(t)
		env.repo.AddGroup(dbmodels.Group{ID: groupID, InviteLink: groupLink})
		id := env.addVacancy(models.VacancyStatusClosed, nil)

		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusApproved})
		require.ErrorIs(t, err, ErrTransitionNotAllowed)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
	})
	t.Run("moderation to active check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusPending, nil)
		err := env.service.Moderate(context.Background(), id, staffID, vacancyapimodels.StatusChangeRequest{Status: models.VacancyStatusActive})
		require.ErrorIs(t, err, ErrTransitionNotAllowed)
	})
}

func TestDeleteAndClose(t *testing.T) {
	t.Run("delete publishes before removal check", func(t *testing.T) {
		env := newEnv(t)
		group := groupID
		id := env.addVacancy(models.VacancyStatusApproved, &group)

		require.NoError(t, env.service.Delete(context.Background(), id, staffID))
		require.Equal(t, []eventbus.Event{eventbus.VacancyDelete}, env.recorder.names())
		require.True(t, env.recorder.events[0].stored)
		_, ok := env.repo.VacancyRecs[id]
		require.False(t, ok)
	})
	t.Run("delete missing check", func(t *testing.T) {
		env := newEnv(t)
		require.ErrorIs(t, env.service.Delete(context.Background(), "missing", staffID), ErrVacancyNotFound)
		require.Empty(t, env.recorder.events)
	})
	t.Run("force close check", func(t *testing.T) {
		env := newEnv(t)
		group := groupID
		id := env.addVacancy(models.VacancyStatusActive, &group)

		require.NoError(t, env.service.ForceClose(context.Background(), id, staffID))
		require.Equal(t, []eventbus.Event{eventbus.VacancyClose, eventbus.VacancyCloseForcibly}, env.recorder.names())
		require.Equal(t, staffID, *env.recorder.events[0].payload.ActorID)
	})
	t.Run("force close pending check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusPending, nil)
		require.ErrorIs(t, env.service.ForceClose(context.Background(), id, staffID), ErrTransitionNotAllowed)
		require.Empty(t, env.recorder.events)
	})
}

func TestFeedback(t *testing.T) {
	t.Run("feedback check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusClosed, nil)

		feedbackID, err := env.service.Feedback(context.Background(), id, ownerID, vacancyapimodels.FeedbackData{Text: "Все добре"})
		require.NoError(t, err)
		require.Len(t, env.repo.FeedbackRecs, 1)
		require.Equal(t, feedbackID, env.repo.FeedbackRecs[0].ID)
		require.Equal(t, id, *env.repo.FeedbackRecs[0].VacancyID)

		require.Equal(t, []eventbus.Event{eventbus.VacancyNewFeedback}, env.recorder.names())
		require.Equal(t, "Все добре", env.recorder.events[0].payload.Feedback.Text)
	})
	t.Run("empty text check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusClosed, nil)
		_, err := env.service.Feedback(context.Background(), id, ownerID, vacancyapimodels.FeedbackData{Text: "  "})
		require.Error(t, err)
		require.Empty(t, env.repo.FeedbackRecs)
	})
}

func TestCleanupMessages(t *testing.T) {
	t.Run("cleanup check", func(t *testing.T) {
		env := newEnv(t)
		id := env.addVacancy(models.VacancyStatusClosed, nil)
		_, err := env.repo.Messages().CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -200, MessageID: 10, VacancyID: &id})
		require.NoError(t, err)
		_, err = env.repo.Messages().CreateGroupMessage(dbmodels.GroupMessage{ChatID: groupID, MessageID: 11, VacancyID: &id})
		require.NoError(t, err)

		stats, err := env.service.CleanupMessages(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, 2, stats.Total)
		require.Equal(t, 2, stats.Deleted)
	})
}
