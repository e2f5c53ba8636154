package recruitment

import (
	"context"
	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"
	dbmodels "shift-tools-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func (i impl) DecideJoin(ctx context.Context, req tgapimodels.ChatJoinRequest) bool {
	logger := log.
		WithField("chat_id", req.Chat.ID).
		WithField("user_id", req.From.ID)
	user, err := i.syncUser(req.From)
	if err == nil && user.IsStaff {
		if err = i.membership.ApproveJoin(ctx, req.Chat.ID, user.ID); err == nil {
			if err = i.membership.PromoteAdmin(ctx, req.Chat.ID, user.ID); err != nil {
				logger.WithError(err).Warn("не удалось назначить сотрудника администратором")
			}
			logger.Info("сотрудник добавлен в группу")
			return true
		}
	}
	approve := false
	if err == nil {
		approve, err = i.decideJoin(req.Chat.ID, user)
	}
	if err != nil {
		logger.WithError(err).Warn("заявка на вступление отклонена из-за ошибки")
		approve = false
	}
	if approve {
		err = i.membership.ApproveJoin(ctx, req.Chat.ID, req.From.ID)
	} else {
		err = i.membership.DeclineJoin(ctx, req.Chat.ID, req.From.ID)
	}
	if err != nil {
		logger.WithError(err).Error("ошибка ответа на заявку на вступление")
		return false
	}
	logger.WithField("approved", approve).Info("заявка на вступление обработана")
	return approve
}

func (i impl) decideJoin(chatID int64, user *dbmodels.User) (bool, error) {
	if !user.IsActive {
		return false, nil
	}
	vacancy, err := i.repo.Vacancies().GetLiveByGroup(chatID)
	if err != nil {
		return false, errors.Wrap(err, "ошибка получения вакансии группы")
	}
	if vacancy == nil {
		return false, errors.New("у группы нет активной вакансии")
	}
	if vacancy.OwnerID == user.ID {
		return true, nil
	}
	count, err := i.repo.Members().CountMembers(vacancy.ID)
	if err != nil {
		return false, errors.Wrap(err, "ошибка подсчета участников вакансии")
	}
	return count < int64(vacancy.PeopleCount) && vacancy.Gender.Accepts(user.Gender), nil
}

func (i impl) syncUser(from tgapimodels.User) (*dbmodels.User, error) {
	err := i.repo.Users().UpsertFromTelegram(dbmodels.User{
		ID:       from.ID,
		Username: from.Username,
		FullName: from.FullName(),
		IsBot:    from.IsBot,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ошибка сохранения пользователя")
	}
	user, err := i.repo.Users().GetByID(from.ID)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения пользователя")
	}
	if user == nil {
		return nil, errors.New("пользователь не найден")
	}
	return user, nil
}

func (i impl) HandleMembership(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error {
	from := upd.NewChatMember.User
	if from.IsBot {
		return nil
	}
	oldStatus := models.ChatMemberStatus(upd.OldChatMember.Status)
	newStatus := models.ChatMemberStatus(upd.NewChatMember.Status)
	if oldStatus.IsGone() && newStatus.IsGone() {
		return nil
	}
	if newStatus == models.ChatMemberAdministrator {
		return nil
	}
	logger := log.
		WithField("chat_id", upd.Chat.ID).
		WithField("user_id", from.ID)
	vacancy, err := i.repo.Vacancies().GetLiveByGroup(upd.Chat.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения вакансии группы")
	}
	if vacancy == nil {
		logger.Warn("изменение участника группы без активной вакансии пропущено")
		return nil
	}
	user, err := i.syncUser(from)
	if err != nil {
		return err
	}
	logger = logger.WithField("vacancy_id", vacancy.ID)
	if newStatus.IsGone() {
		return i.memberLeft(ctx, logger, upd.Chat.ID, vacancy, user)
	}
	return i.memberJoined(ctx, logger, upd.Chat.ID, vacancy, user, newStatus)
}

func (i impl) memberJoined(ctx context.Context, logger *log.Entry, groupID int64, vacancy *dbmodels.Vacancy, user *dbmodels.User, status models.ChatMemberStatus) error {
	switch status {
	case models.ChatMemberMember, models.ChatMemberCreator:
	default:
		status = models.ChatMemberMember
	}
	if user.ID == vacancy.OwnerID {
		status = models.ChatMemberOwner
		if err := i.membership.SetOwnerPermissions(ctx, groupID, user.ID, ""); err != nil {
			logger.WithError(err).Warn("не удалось выдать права заказчику")
		}
	}
	if user.IsStaff {
		status = models.ChatMemberAdministrator
	}
	if err := i.repo.UsersInGroups().Upsert(groupID, user.ID, status); err != nil {
		return errors.Wrap(err, "ошибка сохранения участника группы")
	}
	if _, err := i.repo.Members().Upsert(vacancy.ID, user.ID, status); err != nil {
		return errors.Wrap(err, "ошибка сохранения участника вакансии")
	}
	logger.WithField("status", string(status)).Info("участник вступил в группу")
	i.publish(ctx, eventbus.VacancyNewMember, vacancy, user.ID)
	return nil
}

func (i impl) memberLeft(ctx context.Context, logger *log.Entry, groupID int64, vacancy *dbmodels.Vacancy, user *dbmodels.User) error {
	if err := i.repo.UsersInGroups().Delete(groupID, user.ID); err != nil {
		return errors.Wrap(err, "ошибка удаления участника группы")
	}
	member, err := i.repo.Members().Get(vacancy.ID, user.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения участника вакансии")
	}
	if member != nil {
		if _, err = i.repo.Members().Upsert(vacancy.ID, user.ID, models.ChatMemberLeft); err != nil {
			return errors.Wrap(err, "ошибка обновления участника вакансии")
		}
	}
	if err = i.membership.Kick(ctx, groupID, user.ID); err != nil {
		logger.WithError(err).Warn("не удалось удалить участника из группы")
	}
	logger.Info("участник покинул группу")
	if user.ID == vacancy.OwnerID || user.IsStaff {
		return nil
	}
	i.publish(ctx, eventbus.VacancyLeftMember, vacancy, user.ID)
	return nil
}

func (i impl) publish(ctx context.Context, event eventbus.Event, vacancy *dbmodels.Vacancy, userID int64) {
	if i.publisher == nil {
		return
	}
	i.publisher.Publish(ctx, event, eventbus.Payload{Vacancy: vacancy, UserID: userID})
}

func (i impl) RegisterChat(ctx context.Context, upd tgapimodels.ChatMemberUpdated) error {
	isAdmin := models.ChatMemberStatus(upd.NewChatMember.Status) == models.ChatMemberAdministrator
	logger := log.
		WithField("chat_id", upd.Chat.ID).
		WithField("is_admin", isAdmin)
	switch upd.Chat.Type {
	case tgapimodels.ChatTypeSupergroup:
		err := i.registerGroup(ctx, upd.Chat, isAdmin)
		if err == nil {
			logger.Info("группа зарегистрирована")
		}
		return err
	case tgapimodels.ChatTypeChannel:
		err := i.registerChannel(ctx, upd.Chat, isAdmin)
		if err == nil {
			logger.Info("канал зарегистрирован")
		}
		return err
	}
	return nil
}

func (i impl) registerGroup(ctx context.Context, chat tgapimodels.Chat, isAdmin bool) error {
	existing, err := i.repo.Groups().GetByID(chat.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения группы")
	}
	rec := dbmodels.Group{ID: chat.ID, Title: chat.Title}
	if existing != nil {
		rec.InviteLink = existing.InviteLink
	}
	if !isAdmin {
		rec.InviteLink = ""
		return errors.Wrap(i.repo.Groups().Upsert(rec), "ошибка сохранения группы")
	}
	if rec.InviteLink == "" {
		link, err := i.membership.CreateInviteLink(ctx, chat.ID, true)
		if err != nil {
			log.WithField("chat_id", chat.ID).WithError(err).Warn("не удалось создать ссылку-приглашение группы")
		}
		rec.InviteLink = link
	}
	if err = i.membership.SetDefaultPermissions(ctx, chat.ID); err != nil {
		log.WithField("chat_id", chat.ID).WithError(err).Warn("не удалось установить права группы")
	}
	return errors.Wrap(i.repo.Groups().Upsert(rec), "ошибка сохранения группы")
}

func (i impl) registerChannel(ctx context.Context, chat tgapimodels.Chat, isAdmin bool) error {
	existing, err := i.repo.Channels().GetByID(chat.ID)
	if err != nil {
		return errors.Wrap(err, "ошибка получения канала")
	}
	rec := dbmodels.Channel{ID: chat.ID, Title: chat.Title, HasBotAdministrator: isAdmin}
	if existing != nil {
		rec.City = existing.City
		rec.IsActive = existing.IsActive
		rec.InviteLink = existing.InviteLink
	}
	if isAdmin && rec.InviteLink == "" {
		link, err := i.membership.CreateInviteLink(ctx, chat.ID, false)
		if err != nil {
			log.WithField("chat_id", chat.ID).WithError(err).Warn("не удалось создать ссылку-приглашение канала")
		}
		rec.InviteLink = link
	}
	if !isAdmin {
		rec.InviteLink = ""
	}
	return errors.Wrap(i.repo.Channels().Upsert(rec), "ошибка сохранения канала")
}
