package model

// EventType names a server-to-client message
type EventType string

const (
	EventLoginSuccess     EventType = "loginSuccess"
	EventLoginError       EventType = "loginError"
	EventPlayerList       EventType = "playerList"
	EventIncomingRequest  EventType = "incomingRequest"
	EventGameRequestError EventType = "gameRequestError"
	EventGameStart        EventType = "gameStart"
	EventGameState        EventType = "gameState"
	EventMoveSuggestion   EventType = "moveSuggestion"
	EventError            EventType = "error"
)

// Event is a message addressed to one or more connections
type Event struct {
	Type    EventType
	Payload any // Type-specific data
}

// LoginSuccessPayload identifies the newly authenticated participant
type LoginSuccessPayload struct {
	ID   ConnectionID
	Name string
}

// PlayerListPayload is the lobby roster in join order
type PlayerListPayload struct {
	Players []RosterEntry
}

// IncomingRequestPayload announces a challenge to its target
type IncomingRequestPayload struct {
	FromID   ConnectionID
	FromName string
}

// GameSnapshotPayload carries the full state of a session
type GameSnapshotPayload struct {
	Session GameSession
}

// MoveSuggestionPayload carries a suggested cell for the requester
type MoveSuggestionPayload struct {
	Index int
}

// MessagePayload carries a human-readable message
type MessagePayload struct {
	Message string
}

// Audience selects the connections an event is delivered to
type Audience struct {
	All bool
	IDs []ConnectionID
}

// To addresses the given connections
func To(ids ...ConnectionID) Audience {
	return Audience{IDs: ids}
}

// Everyone addresses every connected client
func Everyone() Audience {
	return Audience{All: true}
}

// Includes returns true if the audience covers the connection
func (a Audience) Includes(id ConnectionID) bool {
	if a.All {
		return true
	}
	for _, target := range a.IDs {
		if target == id {
			return true
		}
	}
	return false
}

// Publisher delivers events without waiting for acknowledgement
type Publisher interface {
	Publish(audience Audience, event Event)
}

// SnapshotEvent builds a session snapshot event of the given type
func SnapshotEvent(eventType EventType, session *GameSession) Event {
	return Event{Type: eventType, Payload: GameSnapshotPayload{Session: *session}}
}
