package membership

import (
	"context"
	"testing"

	"shift-tools-backend/lib/repository/repotest"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/telegram/client/tgclienttest"
	"shift-tools-backend/models"

	"github.com/stretchr/testify/require"
)

func TestKick(t *testing.T) {
	ctx := context.Background()
	t.Run("ban then unban check", func(t *testing.T) {
		client := tgclienttest.New()
		service := NewInstance(client, repotest.New().UsersInGroups(), nil)

		require.NoError(t, service.Kick(ctx, -100, 7))
		require.Len(t, client.Calls, 2)
		require.Equal(t, tgclient.MethodBanChatMember, client.Calls[0].Method)
		require.Equal(t, tgclient.MethodUnbanChatMember, client.Calls[1].Method)
	})
	t.Run("unban after failed ban check", func(t *testing.T) {
		client := tgclienttest.New()
		client.Errors[tgclient.MethodBanChatMember] = &tgclient.APIError{ErrorCode: 400, Description: "Bad Request: user not found"}
		service := NewInstance(client, repotest.New().UsersInGroups(), nil)

		require.Error(t, service.Kick(ctx, -100, 7))
		require.Len(t, client.CallsOf(tgclient.MethodUnbanChatMember), 1)
	})
}

func TestKickAll(t *testing.T) {
	ctx := context.Background()
	t.Run("members and owner check", func(t *testing.T) {
		client := tgclienttest.New()
		repo := repotest.New()
		store := repo.UsersInGroups()
		require.NoError(t, store.Upsert(-100, 1, models.ChatMemberMember))
		require.NoError(t, store.Upsert(-100, 2, models.ChatMemberOwner))
		require.NoError(t, store.Upsert(-100, 3, models.ChatMemberAdministrator))
		require.NoError(t, store.Upsert(-200, 4, models.ChatMemberMember))
		service := NewInstance(client, store, nil)

		result := service.KickAll(ctx, -100, nil)
		require.Equal(t, KickResult{Total: 2, Kicked: 2}, result)

		list, err := store.ListByGroup(-100)
		require.NoError(t, err)
		statuses := map[int64]models.ChatMemberStatus{}
		for _, rec := range list {
			statuses[rec.UserID] = rec.Status
		}
		require.Equal(t, models.ChatMemberKicked, statuses[1])
		require.Equal(t, models.ChatMemberKicked, statuses[2])
		require.Equal(t, models.ChatMemberAdministrator, statuses[3])
	})
}

func TestSetOwnerPermissions(t *testing.T) {
	t.Run("default title check", func(t *testing.T) {
		client := tgclienttest.New()
		service := NewInstance(client, repotest.New().UsersInGroups(), nil)

		require.NoError(t, service.SetOwnerPermissions(context.Background(), -100, 5, ""))
		calls := client.CallsOf(tgclient.MethodSetChatAdministratorCustomTitle)
		require.Len(t, calls, 1)
		require.Equal(t, OwnerTitle, calls[0].Text)
	})
}

func TestCreateInviteLink(t *testing.T) {
	t.Run("join request link check", func(t *testing.T) {
		client := tgclienttest.New()
		service := NewInstance(client, repotest.New().UsersInGroups(), nil)

		link, err := service.CreateInviteLink(context.Background(), -100, true)
		require.NoError(t, err)
		require.NotEmpty(t, link)
	})
}
