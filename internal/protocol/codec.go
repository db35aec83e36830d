package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/noughts/internal/model"
)

var (
	ErrMalformedEnvelope = errors.New("malformed message envelope")
	ErrMalformedPayload  = errors.New("malformed message payload")
)

// Envelope frames every websocket message in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode serializes a server event into an envelope
func Encode(event model.Event) ([]byte, error) {
	payload, err := wirePayload(event)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: string(event.Type), Payload: raw})
}

// Decode parses a client frame into its envelope
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedEnvelope)
	}
	return env, nil
}

// DecodePayload unmarshals an envelope payload into T
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 {
		return out, fmt.Errorf("%w: %s has no payload", ErrMalformedPayload, env.Type)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Type, err)
	}
	return out, nil
}

// EncodeMessage builds a client frame, as sent by the CLI
func EncodeMessage(messageType MessageType, payload any) ([]byte, error) {
	env := Envelope{Type: string(messageType)}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

func wirePayload(event model.Event) (any, error) {
	switch p := event.Payload.(type) {
	case model.LoginSuccessPayload:
		return LoginSuccess{ID: string(p.ID), Name: p.Name}, nil
	case model.PlayerListPayload:
		return NewPlayers(p.Players), nil
	case model.IncomingRequestPayload:
		return IncomingRequest{FromID: string(p.FromID), FromName: p.FromName}, nil
	case model.GameSnapshotPayload:
		return NewGame(&p.Session), nil
	case model.MoveSuggestionPayload:
		return MoveSuggestion{Index: p.Index}, nil
	case model.MessagePayload:
		return p.Message, nil
	default:
		return nil, fmt.Errorf("unsupported payload %T for %s", event.Payload, event.Type)
	}
}
