package recruitment

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/lib/notification"
	"shift-tools-backend/lib/repository"
	"shift-tools-backend/lib/telegram/membership"
	messagedelete "shift-tools-backend/lib/telegram/message-delete"
	"shift-tools-backend/lib/vacancy/formatter"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNoChannel = errors.New("не найден канал для публикации вакансии")

const DefaultResendInterval = 5 * time.Minute

type Provider interface {
	// OnMemberJoined при заполнении вакансии помечает пост в канале как закрытый и поднимает незаполненные вакансии
	OnMemberJoined(ctx context.Context, vacancy *dbmodels.Vacancy) error
	// OnMemberLeft освободилось место в заполненной вакансии: пост в канале публикуется заново
	OnMemberLeft(ctx context.Context, vacancy *dbmodels.Vacancy) error
	ResendSweep(ctx context.Context) (resent int, err error)
	// DecideJoin авто-одобрение заявки на вступление в группу вакансии
	DecideJoin(ctx context.Context, req tgapimodels.ChatJoinRequest) (approved bool)
	HandleMembership(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error
	// RegisterChat учет групп и каналов, в которых бот стал или перестал быть администратором
	RegisterChat(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error
	PublishToChannel(ctx context.Context, vacancy *dbmodels.Vacancy) error
}

type Config struct {
	Location       *time.Location
	ResendInterval time.Duration
	Now            func() time.Time
}

var Instance Provider

func NewHandler(repo repository.Provider, publisher eventbus.Publisher, notifier notification.Provider, members membership.Provider, deleter messagedelete.Provider, cfg Config) {
	Instance = NewInstance(repo, publisher, notifier, members, deleter, cfg)
}

func NewInstance(repo repository.Provider, publisher eventbus.Publisher, notifier notification.Provider, members membership.Provider, deleter messagedelete.Provider, cfg Config) Provider {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ResendInterval <= 0 {
		cfg.ResendInterval = DefaultResendInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &impl{
		repo:       repo,
		publisher:  publisher,
		notifier:   notifier,
		membership: members,
		deleter:    deleter,
		cfg:        cfg,
	}
}

type impl struct {
	repo       repository.Provider
	publisher  eventbus.Publisher
	notifier   notification.Provider
	membership membership.Provider
	deleter    messagedelete.Provider
	cfg        Config
}

func (i impl) getLogger(vacancyID string) *log.Entry {
	return log.WithField("vacancy_id", vacancyID)
}

func (i impl) OnMemberJoined(ctx context.Context, vacancy *dbmodels.Vacancy) error {
	if vacancy == nil {
		return nil
	}
	logger := i.getLogger(vacancy.ID)
	count, err := i.repo.Members().CountMembers(vacancy.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка подсчета участников вакансии")
	}
	// только на переходе в "заполнено", лишние участники пост не трогают
	if count != int64(vacancy.PeopleCount) {
		return nil
	}
	last, err := i.repo.Messages().LastChannelMessage(vacancy.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения сообщения вакансии в канале")
	}
	if last == nil {
		logger.Error("вакансия заполнена, но сообщение в канале не найдено")
		return nil
	}
	_, err = i.notifier.Update(ctx, last.ChatID, last.MessageID, notification.Text{
		Text: formatter.ForChannel(*vacancy, true),
	})
	if err != nil {
		logger.WithError(err).Error("не удалось обновить сообщение заполненной вакансии")
	} else {
		logger.Info("вакансия заполнена, сообщение в канале обновлено")
	}
	i.topResend(ctx, vacancy.ID, *last)
	return nil
}

// topResend поднимает в канале незаполненные вакансии, пост которых оказался выше поста заполненной
func (i impl) topResend(ctx context.Context, fullVacancyID string, fullMessage dbmodels.ChannelMessage) {
	list, err := i.repo.Vacancies().ListLive()
	if err != nil {
		i.getLogger(fullVacancyID).WithError(err).Error("ошибка получения активных вакансий")
		return
	}
	now := i.cfg.Now()
	for idx := range list {
		vacancy := &list[idx]
		if vacancy.ID == fullVacancyID {
			continue
		}
		logger := i.getLogger(vacancy.ID)
		last, err := i.repo.Messages().LastChannelMessage(vacancy.ID)
		if err != nil {
			logger.WithError(err).Error("ошибка получения сообщения вакансии в канале")
			continue
		}
		if last == nil || last.ChatID != fullMessage.ChatID || last.MessageID >= fullMessage.MessageID {
			continue
		}
		ok, err := i.needsRepost(vacancy, now)
		if err != nil {
			logger.WithError(err).Warn("вакансия пропущена")
			continue
		}
		if !ok {
			continue
		}
		if err = i.repost(ctx, vacancy); err != nil {
			logger.WithError(err).Error("не удалось переопубликовать вакансию")
		}
	}
}

func (i impl) OnMemberLeft(ctx context.Context, vacancy *dbmodels.Vacancy) error {
	if vacancy == nil {
		return nil
	}
	start, err := vacancy.StartAt(i.cfg.Location)
	if err != nil {
		return err
	}
	if !i.cfg.Now().Before(start) {
		return nil
	}
	count, err := i.repo.Members().CountMembers(vacancy.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка подсчета участников вакансии")
	}
	if count != int64(vacancy.PeopleCount-1) {
		return nil
	}
	i.getLogger(vacancy.ID).Info("освободилось место, вакансия публикуется повторно")
	return i.repost(ctx, vacancy)
}

func (i impl) ResendSweep(ctx context.Context) (int, error) {
	list, err := i.repo.Vacancies().ListLive()
	if err != nil {
		return 0, errors.Wrap(err, "ошибка получения активных вакансий")
	}
	now := i.cfg.Now()
	resent := 0
	for idx := range list {
		vacancy := &list[idx]
		logger := i.getLogger(vacancy.ID)
		count, err := i.repo.Members().CountMembers(vacancy.ID)
		if err != nil {
			logger.WithError(err).Error("ошибка подсчета участников вакансии")
			continue
		}
		if count >= int64(vacancy.PeopleCount) {
			continue
		}
		last, err := i.repo.Messages().LastChannelMessage(vacancy.ID)
		if err != nil {
			logger.WithError(err).Error("ошибка получения сообщения вакансии в канале")
			continue
		}
		if last != nil && last.CreatedAt.After(now.Add(-i.cfg.ResendInterval)) {
			continue
		}
		ok, err := i.needsRepost(vacancy, now)
		if err != nil {
			logger.WithError(err).Warn("вакансия пропущена")
			continue
		}
		if !ok {
			continue
		}
		if err = i.repost(ctx, vacancy); err != nil {
			logger.WithError(err).Error("не удалось переопубликовать вакансию")
			continue
		}
		resent++
	}
	return resent, nil
}

// needsRepost до начала смены набор идет всегда, после начала только если заказчик запросил добор
func (i impl) needsRepost(vacancy *dbmodels.Vacancy, now time.Time) (bool, error) {
	start, err := vacancy.StartAt(i.cfg.Location)
	if err != nil {
		return false, err
	}
	if now.After(start) {
		return vacancy.Workflow.StartPreCall == models.StartPreCallNeed, nil
	}
	return true, nil
}

func (i impl) repost(ctx context.Context, vacancy *dbmodels.Vacancy) error {
	if i.deleter != nil {
		stats := i.deleter.DeleteChannelMessages(ctx, vacancy.ID)
		if stats.Failed > 0 {
			i.getLogger(vacancy.ID).
				WithField("failed", stats.Failed).
				Warn("не все сообщения вакансии удалены из канала")
		}
	}
	return i.PublishToChannel(ctx, vacancy)
}

func (i impl) PublishToChannel(ctx context.Context, vacancy *dbmodels.Vacancy) error {
	if vacancy == nil {
		return nil
	}
	channel, err := i.findChannel(vacancy)
	if err != nil {
		return err
	}
	_, err = i.notifier.Notify(ctx, channel.ID, notification.Text{
		Text:   formatter.ForChannel(*vacancy, false),
		Markup: formatter.ChannelMarkup(*vacancy),
	}, notification.WithVacancy(vacancy.ID, notification.ChatKindChannel))
	if err != nil {
		return errors.Wrap(err, "ошибка публикации вакансии в канале")
	}
	if vacancy.ChannelID == nil || *vacancy.ChannelID != channel.ID {
		channelID := channel.ID
		if err = i.repo.Vacancies().SetChannel(vacancy.ID, &channelID); err != nil {
			return errors.Wrap(err, "ошибка сохранения канала вакансии")
		}
		vacancy.ChannelID = &channelID
		vacancy.Channel = channel
	}
	i.getLogger(vacancy.ID).
		WithField("chat_id", channel.ID).
		Info("вакансия опубликована в канале")
	return nil
}

func (i impl) findChannel(vacancy *dbmodels.Vacancy) (*dbmodels.Channel, error) {
	if vacancy.Channel != nil && vacancy.Channel.IsActive && vacancy.Channel.HasBotAdministrator {
		return vacancy.Channel, nil
	}
	city := ""
	if vacancy.Owner != nil {
		city = vacancy.Owner.City
	}
	channel, err := i.repo.Channels().FindForCity(city)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка поиска канала")
	}
	if channel == nil {
		return nil, errors.Wrapf(ErrNoChannel, "город %q", city)
	}
	return channel, nil
}
