package messagedelete

import (
	"context"
	tgclient "shift-tools-backend/lib/telegram/client"
	messagestore "shift-tools-backend/lib/telegram/message-store"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"

	log "github.com/sirupsen/logrus"
)

type Provider interface {
	DeleteChannelMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats
	DeleteGroupMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats
	// DeleteVacancyMessages все сообщения вакансии в канале и группе
	DeleteVacancyMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats
}

var Instance Provider

func NewHandler(client tgclient.Provider, messages messagestore.Provider) {
	Instance = NewInstance(client, messages)
}

func NewInstance(client tgclient.Provider, messages messagestore.Provider) Provider {
	return &impl{
		client:   client,
		messages: messages,
	}
}

type impl struct {
	client   tgclient.Provider
	messages messagestore.Provider
}

type chatMessage struct {
	id        string
	chatID    int64
	messageID int64
}

func (i impl) getLogger(vacancyID string) *log.Entry {
	return log.WithField("vacancy_id", vacancyID)
}

func (i impl) DeleteChannelMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats {
	logger := i.getLogger(vacancyID)
	list, err := i.messages.ListChannelMessages(vacancyID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения сообщений вакансии в канале")
		return vacancyapimodels.MessageDeleteStats{}
	}
	items := make([]chatMessage, 0, len(list))
	for _, rec := range list {
		items = append(items, chatMessage{id: rec.ID, chatID: rec.ChatID, messageID: rec.MessageID})
	}
	return i.deleteAll(ctx, logger, items, i.messages.SetChannelMessageStatus)
}

func (i impl) DeleteGroupMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats {
	logger := i.getLogger(vacancyID)
	list, err := i.messages.ListGroupMessages(vacancyID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения сообщений вакансии в группе")
		return vacancyapimodels.MessageDeleteStats{}
	}
	items := make([]chatMessage, 0, len(list))
	for _, rec := range list {
		items = append(items, chatMessage{id: rec.ID, chatID: rec.ChatID, messageID: rec.MessageID})
	}
	return i.deleteAll(ctx, logger, items, i.messages.SetGroupMessageStatus)
}

func (i impl) DeleteVacancyMessages(ctx context.Context, vacancyID string) vacancyapimodels.MessageDeleteStats {
	stats := i.DeleteGroupMessages(ctx, vacancyID)
	stats.Add(i.DeleteChannelMessages(ctx, vacancyID))
	return stats
}

func (i impl) deleteAll(ctx context.Context, logger *log.Entry, items []chatMessage, setStatus func(id string, status models.MessageStatus) error) vacancyapimodels.MessageDeleteStats {
	stats := vacancyapimodels.MessageDeleteStats{Total: len(items)}
	for _, item := range items {
		status := models.MessageStatusDeleted
		err := i.client.DeleteMessage(ctx, item.chatID, item.messageID)
		if err != nil && !tgclient.IsMessageGone(err) {
			status = models.MessageStatusDeleteFailed
			logger.
				WithField("chat_id", item.chatID).
				WithField("message_id", item.messageID).
				WithError(err).
				Warn("не удалось удалить сообщение")
		}
		if status == models.MessageStatusDeleted {
			stats.Deleted++
		} else {
			stats.Failed++
		}
		if err = setStatus(item.id, status); err != nil {
			logger.WithError(err).Error("ошибка обновления статуса сообщения")
		}
	}
	return stats
}
