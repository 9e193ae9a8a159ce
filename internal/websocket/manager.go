package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"journal-server/internal/domain"
	"journal-server/pkg/logger"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

// Manager fans entry events out to a user's open connections. Each
// connection represents one browser tab; the originating tab is excluded
// from its own broadcasts.
type Manager struct {
	clients        map[string]*Client
	userIndex      map[string]map[string]bool
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

func NewManager(maxConnPerUser int, writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]bool),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		maxConnPerUser: maxConnPerUser,
		writeWait:      writeWait,
		pongWait:       pongWait,
		pingPeriod:     pingPeriod,
	}
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.userIndex[client.UserID] == nil {
		m.userIndex[client.UserID] = make(map[string]bool)
	}

	if len(m.userIndex[client.UserID]) >= m.maxConnPerUser {
		logger.Sugar.Warnw("max connections reached", "user_id", client.UserID)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	m.userIndex[client.UserID][client.ID] = true

	logger.Sugar.Debugw("client registered", "client_id", client.ID, "user_id", client.UserID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		delete(m.userIndex[client.UserID], client.ID)

		if len(m.userIndex[client.UserID]) == 0 {
			delete(m.userIndex, client.UserID)
		}

		close(client.Send)
		logger.Sugar.Debugw("client unregistered", "client_id", client.ID)
	}
}

// Inbound traffic is keepalive only; the journal has no client-to-server
// websocket operations.
func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		logger.Sugar.Warnw("unreadable websocket message", "error", err)
		return
	}

	if msg.Type == TypePing {
		pong, err := NewMessage(TypePong, nil)
		if err != nil {
			return
		}
		m.sendToClient(clientMsg.Client.ID, pong)
	}
}

func (m *Manager) broadcastToUser(userID string, message *Message, excludeClientID string) {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	messageBytes, err := json.Marshal(message)
	if err != nil {
		logger.Sugar.Errorw("failed to marshal broadcast", "error", err)
		return
	}

	clientIDs, exists := m.userIndex[userID]
	if !exists {
		return
	}

	for clientID := range clientIDs {
		client := m.clients[clientID]
		if client.ID == excludeClientID {
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			logger.Sugar.Warnw("send buffer full, dropping connection", "client_id", clientID)
			go func(c *Client) { m.Unregister <- c }(client)
		}
	}
}

func (m *Manager) sendToClient(clientID string, message *Message) {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		logger.Sugar.Warnw("send buffer full", "client_id", clientID)
	}
}

func (m *Manager) UserConnections(userID string) int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	return len(m.userIndex[userID])
}

// EntryUpdated implements the entry service's notifier hook.
func (m *Manager) EntryUpdated(userID, clientID string, entry *domain.Entry) {
	msg, err := NewMessage(TypeEntryUpdate, &EntryUpdatePayload{
		EntryID:   entry.ID,
		Version:   entry.Version,
		Title:     entry.Title,
		UpdatedAt: entry.UpdatedAt,
		ClientID:  clientID,
	})
	if err != nil {
		return
	}
	m.broadcastToUser(userID, msg, clientID)
}

func (m *Manager) EntryDeleted(userID, clientID, entryID string, version int64) {
	msg, err := NewMessage(TypeEntryDelete, &EntryDeletePayload{
		EntryID:  entryID,
		Version:  version,
		ClientID: clientID,
	})
	if err != nil {
		return
	}
	m.broadcastToUser(userID, msg, clientID)
}
