package models

import "time"

// Participant is one connected client inside exactly one room.
type Participant struct {
	ConnID   string
	Username string
	JoinedAt time.Time
}

func NewParticipant(connID, username string) *Participant {
	return &Participant{
		ConnID:   connID,
		Username: username,
		JoinedAt: time.Now(),
	}
}
