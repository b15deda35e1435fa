package models

import "time"

// Session is the authoritative state of one active room. It exists only while
// at least one participant is joined; all persistent state (projects) lives in
// the database, never here.
type Session struct {
	RoomID       string
	Code         string
	Input        string
	Output       string
	Participants map[string]*Participant // keyed by connection ID
	CreatedAt    time.Time
}

func NewSession(roomID string) *Session {
	return &Session{
		RoomID:       roomID,
		Participants: make(map[string]*Participant),
		CreatedAt:    time.Now(),
	}
}

// Snapshot is the room view handed to a joining participant.
type Snapshot struct {
	Code   string `json:"code"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{Code: s.Code, Input: s.Input, Output: s.Output}
}

// Roster returns the participant display names as clientUpdate entries.
func (s *Session) Roster() []ClientInfo {
	clients := make([]ClientInfo, 0, len(s.Participants))
	for _, p := range s.Participants {
		clients = append(clients, ClientInfo{Username: p.Username})
	}
	return clients
}
