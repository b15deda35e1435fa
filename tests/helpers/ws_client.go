package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/KumudBhatt/Code-Nexus/internal/models"
)

// WSClient is a test WebSocket client
type WSClient struct {
	conn       *websocket.Conn
	messages   []models.WSMessage
	messagesMu sync.RWMutex
	closed     bool
	closedMu   sync.RWMutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient() *WSClient {
	return &WSClient{
		messages: make([]models.WSMessage, 0),
	}
}

// Connect establishes a WebSocket connection to the given URL
func (c *WSClient) Connect(url string) error {
	ctx := context.Background()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	// Start receiving messages in background
	go c.receiveMessages()

	return nil
}

// receiveMessages continuously reads messages from the WebSocket
func (c *WSClient) receiveMessages() {
	for {
		c.closedMu.RLock()
		if c.closed {
			c.closedMu.RUnlock()
			return
		}
		c.closedMu.RUnlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, data, err := c.conn.Read(ctx)
		cancel()

		if err != nil {
			// Connection closed or error
			return
		}

		var msg models.WSMessage
		if err := json.Unmarshal(data, &msg); err == nil {
			c.messagesMu.Lock()
			c.messages = append(c.messages, msg)
			c.messagesMu.Unlock()
		}
	}
}

// SendMessage sends a message to the WebSocket
func (c *WSClient) SendMessage(msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// SendJoin sends a joinRoom event
func (c *WSClient) SendJoin(roomID, username string) error {
	return c.SendMessage(models.WSMessage{
		Type:     models.MsgTypeJoinRoom,
		RoomID:   roomID,
		Username: username,
	})
}

// SendCodeUpdate sends a codeUpdate event
func (c *WSClient) SendCodeUpdate(roomID, code string) error {
	return c.SendMessage(models.WSMessage{
		Type:   models.MsgTypeCodeUpdate,
		RoomID: roomID,
		Code:   &code,
	})
}

// SendLeave sends a leaveRoom event
func (c *WSClient) SendLeave(roomID string) error {
	return c.SendMessage(models.WSMessage{
		Type:   models.MsgTypeLeaveRoom,
		RoomID: roomID,
	})
}

// SendEndSession sends an endSession event
func (c *WSClient) SendEndSession(roomID string) error {
	return c.SendMessage(models.WSMessage{
		Type:   models.MsgTypeEndSession,
		RoomID: roomID,
	})
}

// WaitForMessageType waits for a specific message type
func (c *WSClient) WaitForMessageType(msgType string, timeout time.Duration) *models.WSMessage {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		c.messagesMu.RLock()
		for _, msg := range c.messages {
			if msg.Type == msgType {
				c.messagesMu.RUnlock()
				return &msg
			}
		}
		c.messagesMu.RUnlock()

		time.Sleep(10 * time.Millisecond)
	}

	return nil
}

// ReceivedMessages returns all received messages
func (c *WSClient) ReceivedMessages() []models.WSMessage {
	c.messagesMu.RLock()
	defer c.messagesMu.RUnlock()

	messages := make([]models.WSMessage, len(c.messages))
	copy(messages, c.messages)
	return messages
}

// ClearMessages clears all received messages
func (c *WSClient) ClearMessages() {
	c.messagesMu.Lock()
	c.messages = make([]models.WSMessage, 0)
	c.messagesMu.Unlock()
}

// Close closes the WebSocket connection
func (c *WSClient) Close() {
	c.closedMu.Lock()
	c.closed = true
	c.closedMu.Unlock()

	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "")
	}
}
