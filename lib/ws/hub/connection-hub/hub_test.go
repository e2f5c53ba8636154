package connectionhub

import (
	"context"
	"sync"
	"testing"
	"time"

	"shift-tools-backend/lib/eventbus"
	"shift-tools-backend/models"
	dbmodels "shift-tools-backend/models/db"
	wsmodels "shift-tools-backend/models/ws"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []wsmodels.ServerMessage
	closed   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v.(wsmodels.ServerMessage))
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []wsmodels.ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]wsmodels.ServerMessage(nil), c.messages...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	t.Run("event broadcast check", func(t *testing.T) {
		hub := NewInstance(func() time.Time { return now })
		first, second := &fakeConn{}, &fakeConn{}
		hub.AddClient(1, first)
		hub.AddClient(2, second)

		vacancy := &dbmodels.Vacancy{Status: models.VacancyStatusApproved}
		vacancy.ID = "v-1"
		err := hub.Update(context.Background(), eventbus.VacancyApproved, eventbus.Payload{Vacancy: vacancy})
		require.NoError(t, err)

		for _, conn := range []*fakeConn{first, second} {
			require.Eventually(t, func() bool { return len(conn.received()) == 1 }, time.Second, 10*time.Millisecond)
			msg := conn.received()[0]
			require.Equal(t, string(eventbus.VacancyApproved), msg.Code)
			require.Equal(t, "v-1", msg.VacancyID)
			require.Equal(t, string(models.VacancyStatusApproved), msg.Status)
			require.Equal(t, "10.05.2024 09:00:00", msg.Time)
		}
	})
	t.Run("direct message check", func(t *testing.T) {
		hub := NewInstance(func() time.Time { return now })
		first, second := &fakeConn{}, &fakeConn{}
		hub.AddClient(1, first)
		hub.AddClient(2, second)
		hub.SendMessage(wsmodels.ServerMessage{ToUserID: 2, Msg: "hi"})
		hub.SendMessage(wsmodels.ServerMessage{ToUserID: 3, Msg: "nobody"})

		require.Eventually(t, func() bool { return len(second.received()) == 1 }, time.Second, 10*time.Millisecond)
		require.Empty(t, first.received())
	})
	t.Run("delete client check", func(t *testing.T) {
		hub := NewInstance(func() time.Time { return now })
		conn := &fakeConn{}
		hub.AddClient(1, conn)
		require.True(t, hub.IsConnected(1))

		hub.DeleteClient(1)
		require.False(t, hub.IsConnected(1))
		require.Eventually(t, conn.isClosed, time.Second, 10*time.Millisecond)
		require.Equal(t, 0, hub.Broadcast(wsmodels.ServerMessage{Msg: "late"}))
	})
	t.Run("reconnect replaces session check", func(t *testing.T) {
		hub := NewInstance(func() time.Time { return now })
		old, fresh := &fakeConn{}, &fakeConn{}
		hub.AddClient(1, old)
		hub.AddClient(1, fresh)
		require.Eventually(t, old.isClosed, time.Second, 10*time.Millisecond)
		require.Equal(t, 1, hub.Broadcast(wsmodels.ServerMessage{Msg: "hello"}))
		require.Eventually(t, func() bool { return len(fresh.received()) == 1 }, time.Second, 10*time.Millisecond)
	})
}
