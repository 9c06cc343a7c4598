package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func waitOnline(t *testing.T, hub *Hub, userID uint) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.IsUserOnline(userID) }, time.Second, 5*time.Millisecond)
}

func TestHub_SendToUser_AllSessions(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	phone := NewClient(hub, nil, 1, "1234567890")
	laptop := NewClient(hub, nil, 1, "1234567890")
	other := NewClient(hub, nil, 2, "1234567890")
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(other)
	waitOnline(t, hub, 2)
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[1]) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.SendToUser(1, map[string]interface{}{"type": "notification", "title": "계약 완료"}))

	assert.Equal(t, "계약 완료", receive(t, phone)["title"])
	assert.Equal(t, "계약 완료", receive(t, laptop)["title"])
	assert.Len(t, other.Send, 0)
}

func TestHub_SendToCompany(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	mine := NewClient(hub, nil, 1, "1111111111")
	theirs := NewClient(hub, nil, 2, "2222222222")
	hub.Register(mine)
	hub.Register(theirs)
	waitOnline(t, hub, 1)
	waitOnline(t, hub, 2)

	require.NoError(t, hub.SendToCompany("1111111111", map[string]interface{}{"type": "contract_completed"}))

	assert.Equal(t, "contract_completed", receive(t, mine)["type"])
	assert.Eventually(t, func() bool { return len(theirs.Send) == 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.ElementsMatch(t, []uint{1}, hub.OnlineUsers("1111111111"))
}

func TestHub_Unregister_ClosesSendAndClearsCompany(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, 7, "1234567890")
	hub.Register(client)
	waitOnline(t, hub, 7)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsUserOnline(7) }, time.Second, 5*time.Millisecond)

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.Empty(t, hub.OnlineUsers("1234567890"))
}

func TestHub_HandleClientMessage_Ping(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := NewClient(hub, nil, 3, "1234567890")
	hub.Register(client)
	waitOnline(t, hub, 3)

	hub.HandleClientMessage(client, []byte(`{"type":"ping"}`))
	assert.Equal(t, "pong", receive(t, client)["type"])

	// 잘못된 메시지는 무시
	hub.HandleClientMessage(client, []byte(`not-json`))
	assert.Len(t, client.Send, 0)
}
