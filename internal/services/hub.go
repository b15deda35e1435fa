package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/KumudBhatt/Code-Nexus/internal/config"
	"github.com/KumudBhatt/Code-Nexus/internal/models"
	"github.com/KumudBhatt/Code-Nexus/internal/security"
)

// Hub is the broadcast router. A single Run goroutine consumes attach/detach
// and client events, maps each event to exactly one Registry operation, and
// fans the resulting state change out to the room. Because every mutation
// funnels through the one loop, room updates are applied one at a time in
// arrival order.
type Hub struct {
	registry *Registry
	metrics  *Metrics

	// Room connections: roomId -> set of clients
	rooms map[string]map[*Client]bool

	// Connection ID to client mapping
	clients map[string]*Client

	attach chan *Client
	detach chan *Client
	events chan *ClientMessage

	mu sync.RWMutex
}

// ClientMessage is one raw frame received from a client.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub(registry *Registry, metrics *Metrics) *Hub {
	return &Hub{
		registry: registry,
		metrics:  metrics,
		rooms:    make(map[string]map[*Client]bool),
		clients:  make(map[string]*Client),
		attach:   make(chan *Client),
		detach:   make(chan *Client),
		events:   make(chan *ClientMessage, config.HubEventBufferSize),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.attach:
			h.attachClient(c)

		case c := <-h.detach:
			h.detachClient(c)

		case msg := <-h.events:
			h.dispatch(msg)
		}
	}
}

// Attach registers a freshly accepted connection with the hub. The client is
// not in any room until its joinRoom event is processed.
func (h *Hub) Attach(c *Client) {
	h.attach <- c
}

// Detach is called on transport-level connection loss.
func (h *Hub) Detach(c *Client) {
	h.detach <- c
}

func (h *Hub) attachClient(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.metrics.IncrementConnections()
	log.Printf("connection attached: conn=%s (total: %d)", c.id, len(h.clients))
}

func (h *Hub) detachClient(c *Client) {
	// The transport gives no room context on involuntary disconnect; resolve
	// the room through the registry's reverse lookup and treat it as a leave.
	if roomID, ok := h.registry.RoomForConn(c.id); ok {
		h.removeFromRoom(c, roomID)
	}

	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	h.metrics.DecrementConnections()
	c.Close()
	log.Printf("connection detached: conn=%s", c.id)
}

// dispatch maps one client event to its registry operation and fan-out.
func (h *Hub) dispatch(cm *ClientMessage) {
	var msg models.WSMessage
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		log.Printf("unmarshal error (conn=%s): %v", cm.Client.id, err)
		h.sendError(cm.Client, "malformed message")
		return
	}

	if !security.IsValidEventType(msg.Type) {
		h.sendError(cm.Client, "unknown event type")
		return
	}
	if err := security.ValidateEventPayload(&msg); err != nil {
		h.sendError(cm.Client, err.Error())
		return
	}

	h.metrics.IncrementMessagesReceived()

	switch msg.Type {
	case models.MsgTypeJoinRoom:
		h.handleJoin(cm.Client, &msg)

	case models.MsgTypeCodeUpdate, models.MsgTypeInputUpdate, models.MsgTypeOutputUpdate:
		h.handleFieldUpdate(cm.Client, &msg)

	case models.MsgTypeLeaveRoom:
		// A late leave for a room the connection already left must not
		// touch the room it is in now.
		if cm.Client.roomID == msg.RoomID {
			h.removeFromRoom(cm.Client, msg.RoomID)
		}

	case models.MsgTypeEndSession:
		h.handleEndSession(cm.Client, &msg)
	}
}

func (h *Hub) handleJoin(c *Client, msg *models.WSMessage) {
	roomID, err := security.ValidateRoomID(msg.RoomID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	username, err := security.ValidateUsername(msg.Username)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	// A participant is scoped to exactly one room at a time.
	if prev, ok := h.registry.RoomForConn(c.id); ok && prev != roomID {
		h.removeFromRoom(c, prev)
	}

	snapshot, roster := h.registry.Join(roomID, c.id, username)
	c.username = username
	c.roomID = roomID

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	h.mu.Unlock()

	log.Printf("%s joined room: %s", username, roomID)

	// Snapshot goes to the joiner only; the roster goes to the whole room,
	// joiner included.
	h.sendToClient(c, &models.WSMessage{
		Type:   models.MsgTypeRoomState,
		RoomID: roomID,
		Code:   &snapshot.Code,
		Input:  &snapshot.Input,
		Output: &snapshot.Output,
	})
	h.broadcastToRoom(roomID, &models.WSMessage{
		Type:    models.MsgTypeClientUpdate,
		RoomID:  roomID,
		Clients: roster,
	}, nil)
}

// handleFieldUpdate applies a last-writer-wins overwrite of one session field
// and rebroadcasts it to everyone in the room except the sender, who already
// has the value locally.
func (h *Hub) handleFieldUpdate(c *Client, msg *models.WSMessage) {
	if c.roomID == "" || c.roomID != msg.RoomID {
		return
	}

	var applied bool
	switch msg.Type {
	case models.MsgTypeCodeUpdate:
		applied = h.registry.UpdateCode(msg.RoomID, *msg.Code)
	case models.MsgTypeInputUpdate:
		applied = h.registry.UpdateInput(msg.RoomID, *msg.Input)
	case models.MsgTypeOutputUpdate:
		applied = h.registry.UpdateOutput(msg.RoomID, *msg.Output)
	}
	if !applied {
		// Room already vanished; expected during teardown races.
		return
	}

	msg.Username = c.username
	h.broadcastToRoom(msg.RoomID, msg, c)
}

func (h *Hub) removeFromRoom(c *Client, roomID string) {
	roster, destroyed, ok := h.registry.Leave(roomID, c.id)
	if !ok {
		return
	}

	h.mu.Lock()
	if clients, exists := h.rooms[roomID]; exists {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	log.Printf("%s left room: %s", c.username, roomID)
	c.roomID = ""

	if !destroyed {
		h.broadcastToRoom(roomID, &models.WSMessage{
			Type:    models.MsgTypeClientUpdate,
			RoomID:  roomID,
			Clients: roster,
		}, nil)
	}
}

// handleEndSession disbands the room: a terminal notice goes to every
// participant, then all of them are detached from the room and the session is
// destroyed. The registry treats all participants uniformly; ownership of a
// room is the caller's concern, enforced at the project layer.
func (h *Hub) handleEndSession(c *Client, msg *models.WSMessage) {
	if c.roomID == "" || c.roomID != msg.RoomID {
		return
	}
	roomID := msg.RoomID

	log.Printf("%s ended the session in room: %s", c.username, roomID)

	h.broadcastToRoom(roomID, &models.WSMessage{
		Type:   models.MsgTypeRoomDisbanded,
		RoomID: roomID,
	}, nil)

	connIDs := h.registry.Disband(roomID)

	h.mu.Lock()
	for _, connID := range connIDs {
		if member, ok := h.clients[connID]; ok {
			member.roomID = ""
		}
	}
	delete(h.rooms, roomID)
	h.mu.Unlock()
}

// broadcastToRoom fans a message out to every connection in the room except
// exclude. Delivery rides each client's buffered send channel; a slow client
// is the client's problem, not the loop's.
func (h *Hub) broadcastToRoom(roomID string, msg *models.WSMessage, exclude *Client) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error (room=%s): %v", roomID, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.Send(data) {
			h.metrics.IncrementMessagesSent()
		}
	}
}

func (h *Hub) sendToClient(c *Client, msg *models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error (conn=%s): %v", c.id, err)
		return
	}
	if c.Send(data) {
		h.metrics.IncrementMessagesSent()
	}
}

func (h *Hub) sendError(c *Client, text string) {
	h.sendToClient(c, &models.WSMessage{
		Type:    models.MsgTypeError,
		Message: text,
	})
}
