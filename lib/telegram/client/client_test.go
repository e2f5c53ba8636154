package tgclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	tgapimodels "shift-tools-backend/models/api/telegram"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, attempts int) (*impl, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	provider := NewInstance(Config{
		Host:        server.URL,
		Token:       "token",
		Timeout:     time.Second,
		MaxAttempts: attempts,
	})
	client := provider.(*impl)
	client.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return client, server
}

func TestSendMessage(t *testing.T) {
	t.Run(`success check`, func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/bottoken/sendMessage", r.URL.Path)
			req := tgapimodels.SendMessageRequest{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, int64(42), req.ChatID)
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"chat":{"id":42,"type":"private"}}}`))
		}, 1)
		msg, err := client.SendMessage(context.Background(), tgapimodels.SendMessageRequest{ChatID: 42, Text: "hi"})
		require.NoError(t, err)
		require.Equal(t, int64(7), msg.MessageID)
		require.Equal(t, int64(42), msg.Chat.ID)
	})

	t.Run(`retry on too many requests check`, func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":1}}`))
				return
			}
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":8,"chat":{"id":1,"type":"private"}}}`))
		}, 3)
		msg, err := client.SendMessage(context.Background(), tgapimodels.SendMessageRequest{ChatID: 1, Text: "hi"})
		require.NoError(t, err)
		require.Equal(t, int64(8), msg.MessageID)
		require.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run(`bad request is not retried check`, func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		}, 3)
		_, err := client.SendMessage(context.Background(), tgapimodels.SendMessageRequest{ChatID: 1, Text: "hi"})
		require.Error(t, err)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, 400, apiErr.ErrorCode)
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run(`attempts are bounded check`, func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":502,"description":"Bad Gateway"}`))
		}, 3)
		_, err := client.SendMessage(context.Background(), tgapimodels.SendMessageRequest{ChatID: 1, Text: "hi"})
		require.Error(t, err)
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})
}

func TestErrorKinds(t *testing.T) {
	t.Run(`not modified check`, func(t *testing.T) {
		err := &APIError{Method: MethodEditMessageText, ErrorCode: 400, Description: "Bad Request: message is not modified"}
		require.True(t, IsNotModified(err))
		require.False(t, IsMessageGone(err))
	})
	t.Run(`message gone check`, func(t *testing.T) {
		err := errors.Wrap(&APIError{Method: MethodDeleteMessage, ErrorCode: 400, Description: "Bad Request: message to delete not found"}, "удаление")
		require.True(t, IsMessageGone(err))
	})
}

func TestExportChatInviteLink(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottoken/exportChatInviteLink", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true,"result":"https://t.me/+abc"}`))
	}, 1)
	link, err := client.ExportChatInviteLink(context.Background(), -100)
	require.NoError(t, err)
	require.Equal(t, "https://t.me/+abc", link)
}
