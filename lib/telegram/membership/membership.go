package membership

import (
	"context"
	tgclient "shift-tools-backend/lib/telegram/client"
	useringroupstore "shift-tools-backend/lib/telegram/user-in-group-store"
	"shift-tools-backend/models"
	tgapimodels "shift-tools-backend/models/api/telegram"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Provider interface {
	ApproveJoin(ctx context.Context, chatID, userID int64) error
	DeclineJoin(ctx context.Context, chatID, userID int64) error
	// Kick бан с немедленным разбаном: пользователь удаляется из чата, но может вернуться по ссылке
	Kick(ctx context.Context, chatID, userID int64) error
	KickAll(ctx context.Context, groupID int64, statuses []models.ChatMemberStatus) KickResult
	SetDefaultPermissions(ctx context.Context, chatID int64) error
	SetOwnerPermissions(ctx context.Context, chatID, userID int64, title string) error
	PromoteAdmin(ctx context.Context, chatID, userID int64) error
	CreateInviteLink(ctx context.Context, chatID int64, joinRequest bool) (string, error)
}

type Recorder interface {
	MembershipAction(action string, err error)
}

type KickResult struct {
	Total  int
	Kicked int
	Failed int
}

// DefaultKickStatuses кого удалять из группы при закрытии вакансии
var DefaultKickStatuses = []models.ChatMemberStatus{models.ChatMemberMember, models.ChatMemberOwner}

const OwnerTitle = "Роботодавець"

var Instance Provider

func NewHandler(client tgclient.Provider, usersInGroups useringroupstore.Provider, recorder Recorder) {
	Instance = NewInstance(client, usersInGroups, recorder)
}

func NewInstance(client tgclient.Provider, usersInGroups useringroupstore.Provider, recorder Recorder) Provider {
	return &impl{
		client:        client,
		usersInGroups: usersInGroups,
		recorder:      recorder,
	}
}

type impl struct {
	client        tgclient.Provider
	usersInGroups useringroupstore.Provider
	recorder      Recorder
}

func (i impl) getLogger(chatID, userID int64) *log.Entry {
	return log.
		WithField("chat_id", chatID).
		WithField("user_id", userID)
}

func (i impl) record(action string, err error) error {
	if i.recorder != nil {
		i.recorder.MembershipAction(action, err)
	}
	return err
}

func (i impl) ApproveJoin(ctx context.Context, chatID, userID int64) error {
	err := i.client.ApproveChatJoinRequest(ctx, chatID, userID)
	return i.record("approve_join", errors.Wrap(err, "ошибка одобрения заявки на вступление"))
}

func (i impl) DeclineJoin(ctx context.Context, chatID, userID int64) error {
	err := i.client.DeclineChatJoinRequest(ctx, chatID, userID)
	return i.record("decline_join", errors.Wrap(err, "ошибка отклонения заявки на вступление"))
}

func (i impl) Kick(ctx context.Context, chatID, userID int64) error {
	banErr := i.client.BanChatMember(ctx, chatID, userID)
	if banErr != nil {
		i.getLogger(chatID, userID).WithError(banErr).Warn("не удалось заблокировать пользователя")
	}
	// разбан выполняется в любом случае, иначе пользователь не сможет вернуться по ссылке
	unbanErr := i.client.UnbanChatMember(ctx, chatID, userID)
	if unbanErr != nil {
		i.getLogger(chatID, userID).WithError(unbanErr).Warn("не удалось разблокировать пользователя")
	}
	if banErr != nil {
		return i.record("kick", errors.Wrap(banErr, "ошибка удаления пользователя из чата"))
	}
	return i.record("kick", errors.Wrap(unbanErr, "ошибка разблокировки пользователя"))
}

func (i impl) KickAll(ctx context.Context, groupID int64, statuses []models.ChatMemberStatus) KickResult {
	logger := log.WithField("chat_id", groupID)
	if len(statuses) == 0 {
		statuses = DefaultKickStatuses
	}
	wanted := map[models.ChatMemberStatus]bool{}
	for _, status := range statuses {
		wanted[status] = true
	}
	list, err := i.usersInGroups.ListByGroup(groupID)
	if err != nil {
		logger.WithError(err).Error("ошибка получения участников группы")
		return KickResult{}
	}
	result := KickResult{}
	for _, rec := range list {
		if !wanted[rec.Status] {
			continue
		}
		result.Total++
		if err = i.Kick(ctx, groupID, rec.UserID); err != nil {
			result.Failed++
			continue
		}
		result.Kicked++
		if err = i.usersInGroups.Upsert(groupID, rec.UserID, models.ChatMemberKicked); err != nil {
			i.getLogger(groupID, rec.UserID).WithError(err).Error("ошибка обновления статуса участника группы")
		}
	}
	return result
}

func (i impl) SetDefaultPermissions(ctx context.Context, chatID int64) error {
	err := i.client.SetChatPermissions(ctx, chatID, tgapimodels.ChatPermissions{
		CanSendMessages:       true,
		CanSendAudios:         true,
		CanSendDocuments:      true,
		CanSendPhotos:         true,
		CanSendVideos:         true,
		CanSendVideoNotes:     true,
		CanSendVoiceNotes:     true,
		CanSendPolls:          true,
		CanSendOtherMessages:  true,
		CanAddWebPagePreviews: true,
	})
	return i.record("set_permissions", errors.Wrap(err, "ошибка установки прав группы"))
}

// SetOwnerPermissions заказчик становится администратором без прав модерации и получает подпись
func (i impl) SetOwnerPermissions(ctx context.Context, chatID, userID int64, title string) error {
	err := i.client.PromoteChatMember(ctx, tgapimodels.PromoteChatMemberRequest{
		ChatID:            chatID,
		UserID:            userID,
		CanPromoteMembers: true,
	})
	if err != nil {
		return i.record("promote_owner", errors.Wrap(err, "ошибка назначения прав заказчику"))
	}
	if title == "" {
		title = OwnerTitle
	}
	err = i.client.SetChatAdministratorCustomTitle(ctx, chatID, userID, title)
	return i.record("promote_owner", errors.Wrap(err, "ошибка установки подписи заказчику"))
}

func (i impl) PromoteAdmin(ctx context.Context, chatID, userID int64) error {
	err := i.client.PromoteChatMember(ctx, tgapimodels.PromoteChatMemberRequest{
		ChatID:            chatID,
		UserID:            userID,
		CanPromoteMembers: true,
		CanDeleteMessages: true,
		CanPinMessages:    true,
	})
	return i.record("promote_admin", errors.Wrap(err, "ошибка назначения администратора"))
}

func (i impl) CreateInviteLink(ctx context.Context, chatID int64, joinRequest bool) (string, error) {
	link, err := i.client.CreateChatInviteLink(ctx, tgapimodels.CreateChatInviteLinkRequest{
		ChatID:             chatID,
		CreatesJoinRequest: joinRequest,
	})
	if err != nil {
		return "", i.record("invite_link", errors.Wrap(err, "ошибка создания ссылки-приглашения"))
	}
	_ = i.record("invite_link", nil)
	return link.InviteLink, nil
}
