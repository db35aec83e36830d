package model

import "time"

// ConnectionID uniquely identifies a realtime connection for its lifetime
type ConnectionID string

// Participant is an authenticated, connected player
type Participant struct {
	ID          ConnectionID
	DisplayName string
	SessionID   SessionID // Empty while the participant is in the lobby
	JoinedAt    time.Time
}

// InSession returns true if the participant is bound to a game session
func (p Participant) InSession() bool {
	return p.SessionID != ""
}

// RosterEntry is one idle participant as shown in the lobby
type RosterEntry struct {
	ID   ConnectionID
	Name string
}

// Credential maps a shared secret to the display name it grants
type Credential struct {
	Secret      string
	DisplayName string
}
