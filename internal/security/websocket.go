package security

import (
	"fmt"

	"github.com/coder/websocket"

	"github.com/KumudBhatt/Code-Nexus/internal/config"
	"github.com/KumudBhatt/Code-Nexus/internal/models"
)

// WebSocket event type validation
var validEventTypes = map[string]bool{
	models.MsgTypeJoinRoom:     true,
	models.MsgTypeCodeUpdate:   true,
	models.MsgTypeInputUpdate:  true,
	models.MsgTypeOutputUpdate: true,
	models.MsgTypeLeaveRoom:    true,
	models.MsgTypeEndSession:   true,
}

// IsValidEventType checks if a WebSocket event type may be sent by a client
func IsValidEventType(msgType string) bool {
	return validEventTypes[msgType]
}

// ValidateEventPayload validates the fields an event type requires.
func ValidateEventPayload(msg *models.WSMessage) error {
	if msg.RoomID == "" {
		return fmt.Errorf("%s event must carry a roomId", msg.Type)
	}

	switch msg.Type {
	case models.MsgTypeJoinRoom:
		if msg.Username == "" {
			return fmt.Errorf("joinRoom event must carry a username")
		}

	case models.MsgTypeCodeUpdate:
		if msg.Code == nil {
			return fmt.Errorf("codeUpdate event must carry a code field")
		}
		if len(*msg.Code) > config.MaxDocumentBytes {
			return fmt.Errorf("document exceeds %d bytes", config.MaxDocumentBytes)
		}

	case models.MsgTypeInputUpdate:
		if msg.Input == nil {
			return fmt.Errorf("inputUpdate event must carry an input field")
		}
		if len(*msg.Input) > config.MaxStdinBytes {
			return fmt.Errorf("input exceeds %d bytes", config.MaxStdinBytes)
		}

	case models.MsgTypeOutputUpdate:
		if msg.Output == nil {
			return fmt.Errorf("outputUpdate event must carry an output field")
		}

	case models.MsgTypeLeaveRoom, models.MsgTypeEndSession:
		// roomId is all these need
	}

	return nil
}

// OriginValidator validates WebSocket connection origins
type OriginValidator struct {
	allowedPatterns []string
}

// NewOriginValidator creates a new origin validator
func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}
