package tgwebhook

import (
	"context"
	"testing"
	"time"

	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/payment"
	"shift-tools-backend/lib/repository/repotest"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/telegram/client/tgclienttest"
	"shift-tools-backend/lib/telegram/membership"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/formatter"
	"shift-tools-backend/lib/vacancy/recruitment"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"

	"github.com/stretchr/testify/require"
)

type fakeRecruiter struct {
	recruitment.Provider
	joins      []tgapimodels.ChatJoinRequest
	membership []tgapimodels.ChatMemberUpdated
	registered []tgapimodels.ChatMemberUpdated
}

func (f *fakeRecruiter) DecideJoin(ctx context.Context, req tgapimodels.ChatJoinRequest) bool {
	f.joins = append(f.joins, req)
	return true
}

func (f *fakeRecruiter) HandleMembership(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error {
	f.membership = append(f.membership, upd)
	return nil
}

func (f *fakeRecruiter) RegisterChat(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error {
	f.registered = append(f.registered, upd)
	return nil
}

type env struct {
	repo      *repotest.Repo
	client    *tgclienttest.Fake
	recruiter *fakeRecruiter
	provider  Provider
	vacancyID string
}

func newEnv(t *testing.T) *env {
	now := time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC)
	repo := repotest.New()
	repo.Now = func() time.Time { return now }
	client := tgclienttest.New()
	notifier := notification.NewInstance(client, repo.Messages(), repo.Users(), nil, nil, notification.Config{Currency: "UAH"})
	calls := vacancycall.NewInstance(repo, eventbus.New(nil), notifier, membership.NewInstance(client, repo.UsersInGroups(), nil), vacancycall.Config{
		Currency: "UAH",
		Now:      func() time.Time { return now },
	})
	payments := payment.NewInstance(repo, client, nil, payment.Config{Now: func() time.Time { return now }})
	recruiter := &fakeRecruiter{}
	vacancyID := repo.AddVacancy(dbmodels.Vacancy{
		OwnerID:     500,
		PeopleCount: 2,
		Status:      models.VacancyStatusApproved,
	})
	repo.AddMembers(vacancyID, 1)
	return &env{
		repo:      repo,
		client:    client,
		recruiter: recruiter,
		provider: NewInstance(repo, client, notifier, recruiter, calls, payments, Config{
			Secret:  "s3cr3t",
			BaseURL: "https://shift.example",
		}),
		vacancyID: vacancyID,
	}
}

func callback(data string, userID int64) tgapimodels.Update {
	return tgapimodels.Update{
		UpdateID: 1,
		CallbackQuery: &tgapimodels.CallbackQuery{
			ID:   "cb-1",
			From: tgapimodels.User{ID: userID, FirstName: "Worker"},
			Message: &tgapimodels.Message{
				MessageID: 77,
				Chat:      tgapimodels.Chat{ID: userID, Type: privateChat},
			},
			Data: data,
		},
	}
}

func TestCheckSecret(t *testing.T) {
	t.Run("secret check", func(t *testing.T) {
		e := newEnv(t)
		require.True(t, e.provider.CheckSecret("s3cr3t"))
		require.False(t, e.provider.CheckSecret(""))
		require.False(t, e.provider.CheckSecret("other"))
	})
	t.Run("disabled secret check", func(t *testing.T) {
		provider := NewInstance(nil, nil, nil, nil, nil, nil, Config{})
		require.True(t, provider.CheckSecret("anything"))
	})
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()
	t.Run("confirm check", func(t *testing.T) {
		e := newEnv(t)
		data := formatter.CallbackData(models.CallTypeBeforeStart, models.CallStatusConfirm, e.vacancyID)
		require.NoError(t, e.provider.Handle(ctx, callback(data, 1)))

		require.Equal(t, models.CallStatusConfirm, e.repo.CallStatuses(e.vacancyID, models.CallTypeBeforeStart)[1])
		deleted := e.client.CallsOf(tgclient.MethodDeleteMessage)
		require.Len(t, deleted, 1)
		require.Equal(t, int64(77), deleted[0].MessageID)
		sent := e.client.CallsOf(tgclient.MethodSendMessage)
		require.Len(t, sent, 1)
		require.Equal(t, formatter.AnswerSaved(), sent[0].Text)
		require.Len(t, e.client.CallsOf(tgclient.MethodAnswerCallbackQuery), 1)
	})
	t.Run("not participant check", func(t *testing.T) {
		e := newEnv(t)
		data := formatter.CallbackData(models.CallTypeBeforeStart, models.CallStatusConfirm, e.vacancyID)
		require.NoError(t, e.provider.Handle(ctx, callback(data, 2)))

		require.Empty(t, e.repo.CallStatuses(e.vacancyID, models.CallTypeBeforeStart))
		sent := e.client.CallsOf(tgclient.MethodSendMessage)
		require.Len(t, sent, 1)
		require.Equal(t, formatter.NotParticipant(), sent[0].Text)
	})
	t.Run("unknown button check", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, e.provider.Handle(ctx, callback("something", 1)))

		answers := e.client.CallsOf(tgclient.MethodAnswerCallbackQuery)
		require.Len(t, answers, 1)
		require.Equal(t, formatter.UnknownAction(), answers[0].Text)
		require.Empty(t, e.client.CallsOf(tgclient.MethodDeleteMessage))
	})
}

func TestHandleDispatch(t *testing.T) {
	ctx := context.Background()
	t.Run("chat updates check", func(t *testing.T) {
		e := newEnv(t)
		require.NoError(t, e.provider.Handle(ctx, tgapimodels.Update{ChatJoinRequest: &tgapimodels.ChatJoinRequest{}}))
		require.NoError(t, e.provider.Handle(ctx, tgapimodels.Update{ChatMember: &tgapimodels.ChatMemberUpdated{}}))
		require.NoError(t, e.provider.Handle(ctx, tgapimodels.Update{MyChatMember: &tgapimodels.ChatMemberUpdated{}}))
		require.Len(t, e.recruiter.joins, 1)
		require.Len(t, e.recruiter.membership, 1)
		require.Len(t, e.recruiter.registered, 1)
	})
	t.Run("pre checkout check", func(t *testing.T) {
		e := newEnv(t)
		err := e.provider.Handle(ctx, tgapimodels.Update{PreCheckoutQuery: &tgapimodels.PreCheckoutQuery{
			ID:             "q-1",
			From:           tgapimodels.User{ID: 500},
			Currency:       "UAH",
			TotalAmount:    20000,
			InvoicePayload: vacancycall.InvoicePayload(e.vacancyID, 200),
		}})
		require.NoError(t, err)
		require.Len(t, e.repo.PreCheckoutLogs, 1)
		require.True(t, e.repo.PreCheckoutLogs[0].Approved)
	})
	t.Run("successful payment check", func(t *testing.T) {
		e := newEnv(t)
		err := e.provider.Handle(ctx, tgapimodels.Update{Message: &tgapimodels.Message{
			From: &tgapimodels.User{ID: 500},
			Chat: tgapimodels.Chat{ID: 500, Type: privateChat},
			SuccessfulPayment: &tgapimodels.SuccessfulPayment{
				Currency:                "UAH",
				TotalAmount:             20000,
				InvoicePayload:          vacancycall.InvoicePayload(e.vacancyID, 200),
				ProviderPaymentChargeID: "ch-1",
			},
		}})
		require.NoError(t, err)
		require.True(t, e.repo.Vacancy(e.vacancyID).Workflow.IsPaid)
	})
	t.Run("start message check", func(t *testing.T) {
		e := newEnv(t)
		err := e.provider.Handle(ctx, tgapimodels.Update{Message: &tgapimodels.Message{
			From: &tgapimodels.User{ID: 42, FirstName: "Олена", Username: "olena"},
			Chat: tgapimodels.Chat{ID: 42, Type: privateChat},
			Text: "/start",
		}})
		require.NoError(t, err)
		require.Equal(t, "Олена", e.repo.UserRecs[42].FullName)
		sent := e.client.CallsOf(tgclient.MethodSendMessage)
		require.Len(t, sent, 1)
		require.Equal(t, formatter.Welcome("https://shift.example"), sent[0].Text)
	})
	t.Run("group message ignored check", func(t *testing.T) {
		e := newEnv(t)
		err := e.provider.Handle(ctx, tgapimodels.Update{Message: &tgapimodels.Message{
			From: &tgapimodels.User{ID: 42},
			Chat: tgapimodels.Chat{ID: -100, Type: "supergroup"},
			Text: "hi",
		}})
		require.NoError(t, err)
		require.Empty(t, e.repo.UserRecs)
		require.Empty(t, e.client.Calls)
	})
}
