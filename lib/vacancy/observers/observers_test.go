package observers

import (
	"context"
	"testing"
	"time"

	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/repository/repotest"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/telegram/client/tgclienttest"
	"shift-tools-backend/lib/telegram/membership"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/recruitment"
	vacancystatus "shift-tools-backend/lib/vacancy/status"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   int64 = 500
	staffID   int64 = 900
	groupID   int64 = -300
	channelID int64 = -200
)

type testEnv struct {
	repo   *repotest.Repo
	client *tgclienttest.Fake
	bus    *eventbus.Bus
	calls  vacancycall.Provider
	status vacancystatus.Provider
}

func newEnv(t *testing.T) *testEnv {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	env := &testEnv{
		repo:   repotest.New(),
		client: tgclienttest.New(),
		bus:    eventbus.New(nil),
	}
	env.repo.Now = func() time.Time { return now }
	env.repo.AddUser(dbmodels.User{ID: ownerID, City: "Київ", IsActive: true})
	env.repo.AddUser(dbmodels.User{ID: staffID, IsStaff: true, IsActive: true})
	env.repo.AddGroup(dbmodels.Group{ID: groupID, InviteLink: "https://t.me/+group", Status: models.GroupStatusProcess})
	env.repo.AddChannel(dbmodels.Channel{
		ID:                  channelID,
		City:                "Київ",
		InviteLink:          "https://t.me/+channel",
		IsActive:            true,
		HasBotAdministrator: true,
	})

	notifier := notification.NewInstance(env.client, env.repo.Messages(), env.repo.Users(), nil, nil, notification.Config{Currency: "UAH"})
	members := membership.NewInstance(env.client, env.repo.UsersInGroups(), nil)
	deleter := messagedelete.NewInstance(env.client, env.repo.Messages())
	env.status = vacancystatus.NewInstance(env.repo, env.bus)
	env.calls = vacancycall.NewInstance(env.repo, env.bus, notifier, members, vacancycall.Config{
		Currency: "UAH",
		Now:      func() time.Time { return now },
	})
	Register(env.bus, Deps{
		Repo:        env.repo,
		Notifier:    notifier,
		Membership:  members,
		Deleter:     deleter,
		Status:      env.status,
		Calls:       env.calls,
		Recruitment: recruitment.NewInstance(env.repo, env.bus, notifier, members, deleter, recruitment.Config{Location: time.UTC, Now: func() time.Time { return now }}),
		BaseURL:     "https://shift.example",
	})
	return env
}

func (e *testEnv) addVacancy(status models.VacancyStatus, peopleCount int) *dbmodels.Vacancy {
	group := groupID
	id := e.repo.AddVacancy(dbmodels.Vacancy{
		OwnerID:     ownerID,
		Gender:      models.GenderAny,
		PeopleCount: peopleCount,
		Date:        time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   "12:00",
		EndTime:     "18:00",
		Address:     "Хрещатик, 1",
		Status:      status,
		GroupID:     &group,
	})
	vacancy := e.repo.Vacancy(id)
	return &vacancy
}

func (e *testEnv) publish(event eventbus.Event, vacancy *dbmodels.Vacancy) eventbus.PublishResult {
	return e.bus.Publish(context.Background(), event, eventbus.Payload{Vacancy: vacancy})
}

func (e *testEnv) sentTo(chatID int64) []tgclienttest.Call {
	var result []tgclienttest.Call
	for _, call := range e.client.CallsOf(tgclient.MethodSendMessage) {
		if call.ChatID == chatID {
			result = append(result, call)
		}
	}
	return result
}

func TestRegister(t *testing.T) {
	t.Run("every event has a handler check", func(t *testing.T) {
		env := newEnv(t)
		for _, event := range eventbus.AllEvents {
			require.NotEmpty(t, env.bus.Handlers(event), event)
		}
		require.Len(t, env.bus.Handlers(eventbus.VacancyClose), 5)
		require.Len(t, env.bus.Handlers(eventbus.VacancyRejected), 4)
	})
}

func TestCreatedAndModeration(t *testing.T) {
	t.Run("created check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusPending, 2)

		result := env.publish(eventbus.VacancyCreated, vacancy)
		require.Equal(t, 2, result.Delivered)
		require.Len(t, env.sentTo(ownerID), 1)
		require.Contains(t, env.sentTo(ownerID)[0].Text, "на модерації")
		require.Len(t, env.sentTo(staffID), 1)
	})
	t.Run("approved check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusPending, 2)

		changed, err := env.status.Transition(context.Background(), vacancy, models.VacancyStatusApproved, nil, "")
		require.NoError(t, err)
		require.True(t, changed)
		require.Len(t, env.sentTo(groupID), 1)
		require.Len(t, env.sentTo(ownerID), 1)
		require.Len(t, env.sentTo(channelID), 1)
		require.True(t, env.repo.Vacancy(vacancy.ID).Workflow.SentInGroup)
		require.Len(t, env.repo.GroupMessages, 1)
		require.Len(t, env.repo.ChannelMessages, 1)

		// повторное событие не дублирует пост в группе
		env.publish(eventbus.VacancyApproved, vacancy)
		require.Len(t, env.sentTo(groupID), 1)
	})
	t.Run("owner failure does not stop siblings check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusApproved, 2)
		env.client.ChatErrors[ownerID] = &tgclient.APIError{ErrorCode: 403, Description: "Forbidden: bot was blocked by the user"}

		result := env.publish(eventbus.VacancyApproved, vacancy)
		require.Equal(t, 1, result.Failed)
		require.Equal(t, 2, result.Delivered)
		require.Len(t, env.sentTo(groupID), 1)
		require.Len(t, env.sentTo(channelID), 1)
	})
	t.Run("rejected with comment check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusPending, 2)
		actor := staffID

		_, err := env.status.Transition(context.Background(), vacancy, models.VacancyStatusRejected, &actor, "немає адреси")
		require.NoError(t, err)
		sent := env.sentTo(ownerID)
		require.Len(t, sent, 1)
		require.Contains(t, sent[0].Text, "відхилено")
		require.Contains(t, sent[0].Text, "немає адреси")
	})
	t.Run("rejecting approved vacancy releases group check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusApproved, 2)
		vacancyID := vacancy.ID
		require.NoError(t, env.repo.UsersInGroups().Upsert(groupID, 1, models.ChatMemberMember))
		_, err := env.repo.Messages().CreateChannelMessage(dbmodels.ChannelMessage{ChatID: channelID, MessageID: 12, VacancyID: &vacancyID})
		require.NoError(t, err)
		actor := staffID

		changed, err := env.status.Transition(context.Background(), vacancy, models.VacancyStatusRejected, &actor, "дубль")
		require.NoError(t, err)
		require.True(t, changed)
		stored := env.repo.Vacancy(vacancy.ID)
		require.Equal(t, models.VacancyStatusRejected, stored.Status)
		require.Nil(t, stored.GroupID)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
		require.Empty(t, env.repo.UserInGroupRecs)
		require.Len(t, env.client.CallsOf(tgclient.MethodDeleteMessage), 1)
		require.Len(t, env.client.CallsOf(tgclient.MethodBanChatMember), 1)
		require.Len(t, env.sentTo(ownerID), 1)
	})
	t.Run("rejecting pending vacancy without group check", func(t *testing.T) {
		env := newEnv(t)
		id := env.repo.AddVacancy(dbmodels.Vacancy{
			OwnerID:     ownerID,
			Gender:      models.GenderAny,
			PeopleCount: 2,
			Date:        time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			StartTime:   "12:00",
			EndTime:     "18:00",
			Status:      models.VacancyStatusPending,
		})
		vacancy := env.repo.Vacancy(id)

		_, err := env.status.Transition(context.Background(), &vacancy, models.VacancyStatusRejected, nil, "")
		require.NoError(t, err)
		require.Equal(t, models.GroupStatusProcess, env.repo.GroupRecs[groupID].Status)
		require.Empty(t, env.client.CallsOf(tgclient.MethodBanChatMember))
		require.Len(t, env.sentTo(ownerID), 1)
	})
}

func TestCallEvents(t *testing.T) {
	ctx := context.Background()
	t.Run("start call check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusApproved, 2)

		started, err := env.calls.StartCall(ctx, vacancy)
		require.NoError(t, err)
		require.True(t, started)
		sent := env.sentTo(ownerID)
		require.Len(t, sent, 1)
		require.Equal(t, "Будь ласка, позначте працівників, які вийшли на зміну.", sent[0].Text)
		require.Equal(t, models.VacancyStatusActive, env.repo.Vacancy(vacancy.ID).Status)
		require.Len(t, env.repo.HistoryRecs, 1)
	})
	t.Run("before call check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusApproved, 2)
		env.repo.AddMembers(vacancy.ID, 1, 2)

		env.publish(eventbus.VacancyBeforeCall, vacancy)
		env.publish(eventbus.VacancyBeforeCall, vacancy)
		require.Len(t, env.sentTo(1), 1)
		require.Len(t, env.sentTo(2), 1)
	})
	t.Run("start call fail check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusActive, 2)
		env.repo.AddMembers(vacancy.ID, 1, 2)
		env.repo.AddUser(dbmodels.User{ID: 2, FullName: "Петро", Phone: "+380501112233", IsActive: true})

		result, err := env.calls.ConfirmRoster(ctx, vacancy.ID, models.CallTypeStart, []int64{1})
		require.NoError(t, err)
		require.Equal(t, 1, result.Rejected)

		staff := env.sentTo(staffID)
		require.Len(t, staff, 1)
		require.Contains(t, staff[0].Text, "+380501112233")
		require.Contains(t, staff[0].Text, "https://t.me/+group")
		member := env.sentTo(2)
		require.Len(t, member, 1)
		require.Contains(t, member[0].Text, "https://t.me/+group")
		require.Empty(t, env.sentTo(1))
	})
	t.Run("final call fail check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusActive, 2)
		env.repo.AddMembers(vacancy.ID, 1, 2)

		_, err := env.calls.ConfirmRoster(ctx, vacancy.ID, models.CallTypeAfterStart, []int64{2})
		require.NoError(t, err)
		require.Len(t, env.sentTo(staffID), 1)
		require.Len(t, env.sentTo(ownerID), 1)
		require.Empty(t, env.client.CallsOf(tgclient.MethodSendInvoice))
	})
	t.Run("final call success invoice check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusActive, 2)
		env.repo.AddMembers(vacancy.ID, 1, 2)

		_, err := env.calls.ConfirmRoster(ctx, vacancy.ID, models.CallTypeAfterStart, []int64{1, 2})
		require.NoError(t, err)
		invoices := env.client.CallsOf(tgclient.MethodSendInvoice)
		require.Len(t, invoices, 1)
		require.Equal(t, ownerID, invoices[0].ChatID)
		req := invoices[0].Request.(tgapimodels.SendInvoiceRequest)
		require.Equal(t, int64(20000), req.Prices[0].Amount)
		require.Equal(t, "invoice_payload:"+vacancy.ID+":200", req.Payload)
		require.Equal(t, "UAH", req.Currency)
	})
}

func TestCloseEvents(t *testing.T) {
	ctx := context.Background()
	prepare := func(env *testEnv) *dbmodels.Vacancy {
		vacancy := env.addVacancy(models.VacancyStatusActive, 2)
		vacancyID := vacancy.ID
		env.repo.AddMembers(vacancy.ID, 1, 2)
		require.NoError(t, env.repo.UsersInGroups().Upsert(groupID, 1, models.ChatMemberMember))
		require.NoError(t, env.repo.UsersInGroups().Upsert(groupID, 2, models.ChatMemberMember))
		require.NoError(t, env.repo.UsersInGroups().Upsert(groupID, ownerID, models.ChatMemberOwner))
		require.NoError(t, env.repo.UsersInGroups().Upsert(groupID, staffID, models.ChatMemberAdministrator))
		_, err := env.repo.Messages().CreateGroupMessage(dbmodels.GroupMessage{ChatID: groupID, MessageID: 11, VacancyID: &vacancyID})
		require.NoError(t, err)
		_, err = env.repo.Messages().CreateChannelMessage(dbmodels.ChannelMessage{ChatID: channelID, MessageID: 12, VacancyID: &vacancyID})
		require.NoError(t, err)
		return vacancy
	}
	t.Run("close check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := prepare(env)
		env.repo.VacancyRecs[vacancy.ID].Workflow.IsPaid = true

		checked, err := env.calls.CloseCheck(ctx, vacancy)
		require.NoError(t, err)
		require.True(t, checked)

		require.Len(t, env.client.CallsOf(tgclient.MethodDeleteMessage), 2)
		require.Len(t, env.client.CallsOf(tgclient.MethodBanChatMember), 3)
		stored := env.repo.Vacancy(vacancy.ID)
		require.Equal(t, models.VacancyStatusClosed, stored.Status)
		require.Nil(t, stored.GroupID)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
		require.Empty(t, env.repo.UserInGroupRecs)
		require.Len(t, env.repo.HistoryRecs, 1)
		require.Len(t, env.sentTo(staffID), 1)
		require.Len(t, env.sentTo(ownerID), 1)
	})
	t.Run("payment missing check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := prepare(env)

		checked, err := env.calls.CloseCheck(ctx, vacancy)
		require.NoError(t, err)
		require.True(t, checked)

		staff := env.sentTo(staffID)
		require.Len(t, staff, 1)
		require.Contains(t, staff[0].Text, "https://t.me/+group")
		require.Equal(t, models.VacancyStatusActive, env.repo.Vacancy(vacancy.ID).Status)
		require.Empty(t, env.client.CallsOf(tgclient.MethodBanChatMember))
	})
	t.Run("force close check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := prepare(env)

		env.publish(eventbus.VacancyClose, vacancy)
		env.publish(eventbus.VacancyCloseForcibly, vacancy)
		require.Equal(t, models.VacancyStatusClosed, env.repo.Vacancy(vacancy.ID).Status)
		require.Len(t, env.sentTo(staffID), 2)
		owner := env.sentTo(ownerID)
		require.Len(t, owner, 2)
		require.Contains(t, owner[1].Text, "закрито адміністратором")
	})
	t.Run("delete check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := prepare(env)
		delete(env.repo.VacancyRecs, vacancy.ID)

		result := env.publish(eventbus.VacancyDelete, vacancy)
		require.Equal(t, 0, result.Failed)
		require.Len(t, env.client.CallsOf(tgclient.MethodDeleteMessage), 2)
		require.Len(t, env.client.CallsOf(tgclient.MethodBanChatMember), 3)
		require.Equal(t, models.GroupStatusAvailable, env.repo.GroupRecs[groupID].Status)
	})
}

func TestRefindAndFeedback(t *testing.T) {
	t.Run("refind check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusActive, 3)
		vacancyID := vacancy.ID
		_, err := env.repo.Messages().CreateChannelMessage(dbmodels.ChannelMessage{ChatID: channelID, MessageID: 12, VacancyID: &vacancyID})
		require.NoError(t, err)

		require.NoError(t, env.calls.Refind(context.Background(), vacancy.ID))
		require.Len(t, env.client.CallsOf(tgclient.MethodDeleteMessage), 1)
		require.Len(t, env.sentTo(channelID), 1)
		require.Len(t, env.sentTo(staffID), 1)
	})
	t.Run("refind closed vacancy check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusClosed, 3)

		env.publish(eventbus.VacancyRefind, vacancy)
		require.Empty(t, env.sentTo(channelID))
	})
	t.Run("feedback check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusClosed, 3)
		vacancyID := vacancy.ID

		result := env.bus.Publish(context.Background(), eventbus.VacancyNewFeedback, eventbus.Payload{
			Vacancy:  vacancy,
			Feedback: &dbmodels.UserFeedback{UserID: ownerID, VacancyID: &vacancyID, Text: "Все вийшли вчасно"},
		})
		require.Equal(t, 0, result.Failed)
		staff := env.sentTo(staffID)
		require.Len(t, staff, 1)
		require.Contains(t, staff[0].Text, "Все вийшли вчасно")
	})
	t.Run("empty payload check", func(t *testing.T) {
		env := newEnv(t)

		result := env.bus.Publish(context.Background(), eventbus.VacancyNewFeedback, eventbus.Payload{})
		require.Equal(t, 1, result.Failed)
	})
}

func TestObserverErrors(t *testing.T) {
	t.Run("store failure check", func(t *testing.T) {
		env := newEnv(t)
		vacancy := env.addVacancy(models.VacancyStatusApproved, 2)
		env.repo.FailOn["Vacancies.SetFlag"] = errors.New("connection reset")

		result := env.publish(eventbus.VacancyApproved, vacancy)
		require.Equal(t, 1, result.Failed)
		require.Empty(t, env.sentTo(groupID))
		require.Len(t, env.sentTo(channelID), 1)
	})
}
