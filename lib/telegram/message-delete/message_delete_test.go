package messagedelete

import (
	"context"
	"testing"

	"shift-tools-backend/lib/repository/repotest"
	tgclient "shift-tools-backend/lib/telegram/client"
	"shift-tools-backend/lib/telegram/client/tgclienttest"
	"shift-tools-backend/models"
	vacancyapimodels "shift-tools-backend/models/api/vacancy"
	dbmodels "shift-tools-backend/models/db"

	"github.com/stretchr/testify/require"
)

func TestDeleteVacancyMessages(t *testing.T) {
	ctx := context.Background()
	vacancyID := "v1"
	other := "v2"
	t.Run("stats and statuses check", func(t *testing.T) {
		repo := repotest.New()
		messages := repo.Messages()
		_, _ = messages.CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -1, MessageID: 10, VacancyID: &vacancyID})
		_, _ = messages.CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -1, MessageID: 11, VacancyID: &vacancyID, Status: models.MessageStatusDeleteFailed})
		_, _ = messages.CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -1, MessageID: 12, VacancyID: &vacancyID, Status: models.MessageStatusDeleted})
		_, _ = messages.CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -1, MessageID: 13, VacancyID: &other})
		_, _ = messages.CreateGroupMessage(dbmodels.GroupMessage{ChatID: -2, MessageID: 20, VacancyID: &vacancyID})
		client := tgclienttest.New()
		client.ChatErrors[-2] = &tgclient.APIError{ErrorCode: 400, Description: "Bad Request: message can't be deleted"}

		stats := NewInstance(client, messages).DeleteVacancyMessages(ctx, vacancyID)
		require.Equal(t, vacancyapimodels.MessageDeleteStats{Total: 3, Deleted: 2, Failed: 1}, stats)
		require.Len(t, client.CallsOf(tgclient.MethodDeleteMessage), 3)

		left, err := messages.ListChannelMessages(vacancyID)
		require.NoError(t, err)
		require.Empty(t, left)
		groupLeft, err := messages.ListGroupMessages(vacancyID)
		require.NoError(t, err)
		require.Len(t, groupLeft, 1)
		require.Equal(t, models.MessageStatusDeleteFailed, groupLeft[0].Status)
	})
	t.Run("already deleted counts as deleted check", func(t *testing.T) {
		repo := repotest.New()
		_, _ = repo.Messages().CreateChannelMessage(dbmodels.ChannelMessage{ChatID: -1, MessageID: 10, VacancyID: &vacancyID})
		client := tgclienttest.New()
		client.Errors[tgclient.MethodDeleteMessage] = &tgclient.APIError{ErrorCode: 400, Description: "Bad Request: message to delete not found"}

		stats := NewInstance(client, repo.Messages()).DeleteChannelMessages(ctx, vacancyID)
		require.Equal(t, vacancyapimodels.MessageDeleteStats{Total: 1, Deleted: 1}, stats)
	})
}
