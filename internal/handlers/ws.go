package handlers

import (
	"github.com/coder/websocket"
	"github.com/pocketbase/pocketbase/core"

	"github.com/KumudBhatt/Code-Nexus/internal/security"
	"github.com/KumudBhatt/Code-Nexus/internal/services"
)

type WSHandler struct {
	hub     *services.Hub
	origins *security.OriginValidator
}

func NewWSHandler(hub *services.Hub, origins *security.OriginValidator) *WSHandler {
	return &WSHandler{
		hub:     hub,
		origins: origins,
	}
}

// HandleWebSocket upgrades the request and hands the connection to the hub.
// The client is in no room yet; it joins by sending a joinRoom event, which is
// how involuntary disconnects can be mapped back to a room later (reverse
// lookup, not transport context).
func (h *WSHandler) HandleWebSocket(re *core.RequestEvent) error {
	conn, err := websocket.Accept(re.Response, re.Request, h.origins.GetAcceptOptions())
	if err != nil {
		return err
	}

	client := services.NewClient(conn, h.hub)
	h.hub.Attach(client)
	client.Start()

	return nil
}
