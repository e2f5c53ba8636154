package tgwebhook

import (
	"context"
	"crypto/subtle"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/payment"
	"shift-tools-backend/lib/repository"
	tgclient "shift-tools-backend/lib/telegram/client"
	vacancycall "shift-tools-backend/lib/vacancy/call"
	"shift-tools-backend/lib/vacancy/formatter"
	"shift-tools-backend/lib/vacancy/recruitment"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const privateChat = "private"

type Provider interface {
	// CheckSecret сверка заголовка X-Telegram-Bot-Api-Secret-Token. Пустой секрет отключает проверку
	CheckSecret(token string) bool
	Handle(ctx context.Context, upd tgapimodels.Update) error
}

type Config struct {
	Secret  string
	BaseURL string
}

var Instance Provider

func NewHandler(repo repository.Provider, client tgclient.Provider, notifier notification.Provider,
	recruiter recruitment.Provider, calls vacancycall.Provider, payments payment.Provider, cfg Config) {
	Instance = NewInstance(repo, client, notifier, recruiter, calls, payments, cfg)
}

func NewInstance(repo repository.Provider, client tgclient.Provider, notifier notification.Provider,
	recruiter recruitment.Provider, calls vacancycall.Provider, payments payment.Provider, cfg Config) Provider {
	return &impl{
		repo:      repo,
		client:    client,
		notifier:  notifier,
		recruiter: recruiter,
		calls:     calls,
		payments:  payments,
		cfg:       cfg,
	}
}

type impl struct {
	repo      repository.Provider
	client    tgclient.Provider
	notifier  notification.Provider
	recruiter recruitment.Provider
	calls     vacancycall.Provider
	payments  payment.Provider
	cfg       Config
}

func (i impl) getLogger(upd tgapimodels.Update) *log.Entry {
	return log.WithField("update_id", upd.UpdateID)
}

func (i impl) CheckSecret(token string) bool {
	if i.cfg.Secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(i.cfg.Secret)) == 1
}

func (i impl) Handle(ctx context.Context, upd tgapimodels.Update) error {
	switch {
	case upd.PreCheckoutQuery != nil:
		_, err := i.payments.PreCheckout(ctx, *upd.PreCheckoutQuery)
		return err
	case upd.Message != nil && upd.Message.SuccessfulPayment != nil:
		return i.payments.SuccessfulPayment(ctx, *upd.Message)
	case upd.ChatJoinRequest != nil:
		i.recruiter.DecideJoin(ctx, *upd.ChatJoinRequest)
		return nil
	case upd.ChatMember != nil:
		return i.recruiter.HandleMembership(ctx, *upd.ChatMember)
	case upd.MyChatMember != nil:
		return i.recruiter.RegisterChat(ctx, *upd.MyChatMember)
	case upd.CallbackQuery != nil:
		return i.handleCallback(ctx, *upd.CallbackQuery)
	case upd.Message != nil:
		return i.handleMessage(ctx, *upd.Message)
	}
	i.getLogger(upd).Debug("обновление пропущено")
	return nil
}

func (i impl) handleMessage(ctx context.Context, msg tgapimodels.Message) error {
	if msg.Chat.Type != privateChat || msg.From == nil || msg.From.IsBot {
		return nil
	}
	err := i.repo.Users().UpsertFromTelegram(dbmodels.User{
		ID:       msg.From.ID,
		Username: msg.From.Username,
		FullName: msg.From.FullName(),
		IsActive: true,
	})
	if err != nil {
		return errors.Wrap(err, "ошибка сохранения пользователя")
	}
	if !strings.HasPrefix(msg.Text, "/start") {
		return nil
	}
	_, err = i.notifier.Notify(ctx, msg.From.ID, notification.Text{
		Text:           formatter.Welcome(i.cfg.BaseURL),
		DisablePreview: true,
	})
	return err
}

func (i impl) handleCallback(ctx context.Context, query tgapimodels.CallbackQuery) error {
	logger := log.
		WithField("user_id", query.From.ID).
		WithField("callback_data", query.Data)
	callType, status, vacancyID, ok := formatter.ParseCallbackData(query.Data)
	if !ok || callType != models.CallTypeBeforeStart || status != models.CallStatusConfirm {
		logger.Warn("неизвестная кнопка")
		return i.answerCallback(ctx, query.ID, formatter.UnknownAction())
	}
	err := i.calls.ConfirmBeforeStart(ctx, vacancyID, query.From.ID)
	reply := formatter.AnswerSaved()
	switch {
	case errors.Is(err, vacancycall.ErrNotMember):
		reply = formatter.NotParticipant()
	case err != nil:
		if answerErr := i.answerCallback(ctx, query.ID, ""); answerErr != nil {
			logger.WithError(answerErr).Warn("не удалось ответить на нажатие кнопки")
		}
		return err
	}
	if query.Message != nil {
		if err = i.client.DeleteMessage(ctx, query.Message.Chat.ID, query.Message.MessageID); err != nil {
			logger.WithError(err).Warn("не удалось удалить запрос подтверждения")
		}
	}
	if _, err = i.notifier.Notify(ctx, query.From.ID, notification.Text{Text: reply}); err != nil {
		logger.WithError(err).Warn("не удалось отправить ответ участнику")
	}
	return i.answerCallback(ctx, query.ID, "")
}

func (i impl) answerCallback(ctx context.Context, queryID, text string) error {
	err := i.client.AnswerCallbackQuery(ctx, tgapimodels.AnswerCallbackQueryRequest{
		CallbackQueryID: queryID,
		Text:            text,
	})
	if err != nil {
		return errors.Wrap(err, "ошибка ответа на нажатие кнопки")
	}
	return nil
}
