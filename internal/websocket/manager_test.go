package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journal-server/internal/domain"
)

func newTestManager() *Manager {
	return NewManager(3, 10*time.Second, 60*time.Second, 54*time.Second)
}

func TestManager_RegisterAndUnregister(t *testing.T) {
	m := newTestManager()

	tab1 := NewClient("tab1", "user1", nil, m)
	tab2 := NewClient("tab2", "user1", nil, m)

	m.registerClient(tab1)
	m.registerClient(tab2)

	assert.Equal(t, 2, m.UserConnections("user1"))

	m.unregisterClient(tab1)
	assert.Equal(t, 1, m.UserConnections("user1"))

	_, open := <-tab1.Send
	assert.False(t, open, "expected send channel closed on unregister")
}

func TestManager_MaxConnectionsPerUser(t *testing.T) {
	m := NewManager(1, 10*time.Second, 60*time.Second, 54*time.Second)

	m.registerClient(NewClient("tab1", "user1", nil, m))

	rejected := NewClient("tab2", "user1", nil, m)
	m.registerClient(rejected)

	assert.Equal(t, 1, m.UserConnections("user1"))

	_, open := <-rejected.Send
	assert.False(t, open, "expected rejected client's channel closed")
}

func TestManager_EntryUpdatedExcludesOriginator(t *testing.T) {
	m := newTestManager()

	originator := NewClient("tabA", "user1", nil, m)
	other := NewClient("tabB", "user1", nil, m)
	stranger := NewClient("tabC", "user2", nil, m)

	m.registerClient(originator)
	m.registerClient(other)
	m.registerClient(stranger)

	m.EntryUpdated("user1", "tabA", &domain.Entry{
		ID: "e1", Version: 2, Title: "edited", UpdatedAt: time.Now(),
	})

	select {
	case raw := <-other.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, TypeEntryUpdate, msg.Type)

		var payload EntryUpdatePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, "e1", payload.EntryID)
		assert.Equal(t, int64(2), payload.Version)
		assert.Equal(t, "tabA", payload.ClientID)
	default:
		t.Fatal("expected the other tab to receive the update")
	}

	assert.Empty(t, originator.Send, "originator must not hear its own write")
	assert.Empty(t, stranger.Send, "other users must not hear the update")
}

func TestManager_EntryDeletedBroadcast(t *testing.T) {
	m := newTestManager()

	other := NewClient("tabB", "user1", nil, m)
	m.registerClient(other)

	m.EntryDeleted("user1", "tabA", "e1", 3)

	raw := <-other.Send
	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeEntryDelete, msg.Type)

	var payload EntryDeletePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "e1", payload.EntryID)
	assert.Equal(t, int64(3), payload.Version)
}

func TestManager_PingAnsweredWithPong(t *testing.T) {
	m := newTestManager()

	client := NewClient("tab1", "user1", nil, m)
	m.registerClient(client)

	ping, err := NewMessage(TypePing, nil)
	require.NoError(t, err)
	raw, err := json.Marshal(ping)
	require.NoError(t, err)

	m.processMessage(&ClientMessage{Client: client, Message: raw})

	reply := <-client.Send
	var msg Message
	require.NoError(t, json.Unmarshal(reply, &msg))
	assert.Equal(t, TypePong, msg.Type)
}
