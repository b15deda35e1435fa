package models

// WSMessage is the wire envelope for every realtime event, client→server and
// server→client. Fields are optional depending on Type; Code/Input/Output are
// pointers so an explicit empty-string overwrite still travels.
type WSMessage struct {
	Type     string       `json:"type"`
	RoomID   string       `json:"roomId,omitempty"`
	Username string       `json:"username,omitempty"`
	Code     *string      `json:"code,omitempty"`
	Input    *string      `json:"input,omitempty"`
	Output   *string      `json:"output,omitempty"`
	Clients  []ClientInfo `json:"clients,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// ClientInfo is one roster entry in a clientUpdate payload.
type ClientInfo struct {
	Username string `json:"username"`
}

// Client → Server message types
const (
	MsgTypeJoinRoom     = "joinRoom"
	MsgTypeCodeUpdate   = "codeUpdate"
	MsgTypeInputUpdate  = "inputUpdate"
	MsgTypeOutputUpdate = "outputUpdate"
	MsgTypeLeaveRoom    = "leaveRoom"
	MsgTypeEndSession   = "endSession"
)

// Server → Client message types
const (
	MsgTypeRoomState     = "roomState" // initial snapshot, sent to the joiner only
	MsgTypeClientUpdate  = "clientUpdate"
	MsgTypeRoomDisbanded = "roomDisbanded"
	MsgTypeError         = "error"
)
