package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/noughts/internal/model"
)

func TestEncodeSnapshot(t *testing.T) {
	session := model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"a", "b"}, time.Now())
	require.NoError(t, session.ApplyMove(4))

	data, err := Encode(model.SnapshotEvent(model.EventGameState, session))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "gameState",
		"payload": {
			"id": "s-1",
			"board": [null, null, null, null, "X", null, null, null, null],
			"turn": "O",
			"players": {"X": "Alice", "O": "Bob"},
			"winner": null
		}
	}`, string(data))
}

func TestEncodeSnapshotWithOutcome(t *testing.T) {
	session := model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"a", "b"}, time.Now())
	session.Outcome = model.OutcomeOpponentLeft

	data, err := Encode(model.SnapshotEvent(model.EventGameState, session))
	require.NoError(t, err)

	var env struct {
		Payload Game `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	require.NotNil(t, env.Payload.Winner)
	assert.Equal(t, "opponent_left", *env.Payload.Winner)
}

func TestEncodeEvents(t *testing.T) {
	tests := []struct {
		name  string
		event model.Event
		want  string
	}{
		{
			name:  "login success",
			event: model.Event{Type: model.EventLoginSuccess, Payload: model.LoginSuccessPayload{ID: "a", Name: "Alice"}},
			want:  `{"type":"loginSuccess","payload":{"id":"a","name":"Alice"}}`,
		},
		{
			name:  "login error",
			event: model.Event{Type: model.EventLoginError, Payload: model.MessagePayload{Message: "Invalid secret code."}},
			want:  `{"type":"loginError","payload":"Invalid secret code."}`,
		},
		{
			name: "player list",
			event: model.Event{Type: model.EventPlayerList, Payload: model.PlayerListPayload{
				Players: []model.RosterEntry{{ID: "a", Name: "Alice"}, {ID: "b", Name: "Bob"}},
			}},
			want: `{"type":"playerList","payload":[{"id":"a","name":"Alice"},{"id":"b","name":"Bob"}]}`,
		},
		{
			name:  "empty player list",
			event: model.Event{Type: model.EventPlayerList, Payload: model.PlayerListPayload{}},
			want:  `{"type":"playerList","payload":[]}`,
		},
		{
			name:  "incoming request",
			event: model.Event{Type: model.EventIncomingRequest, Payload: model.IncomingRequestPayload{FromID: "a", FromName: "Alice"}},
			want:  `{"type":"incomingRequest","payload":{"fromId":"a","fromName":"Alice"}}`,
		},
		{
			name:  "move suggestion",
			event: model.Event{Type: model.EventMoveSuggestion, Payload: model.MoveSuggestionPayload{Index: 0}},
			want:  `{"type":"moveSuggestion","payload":{"index":0}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestEncodeUnsupportedPayload(t *testing.T) {
	_, err := Encode(model.Event{Type: model.EventError, Payload: 42})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	env, err := Decode([]byte(`{"type":"makeMove","payload":{"index":4}}`))
	require.NoError(t, err)
	assert.Equal(t, string(MessageMakeMove), env.Type)

	move, err := DecodePayload[MakeMove](env)
	require.NoError(t, err)
	require.NotNil(t, move.Index)
	assert.Equal(t, 4, *move.Index)
}

func TestDecodeStringPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"login","payload":" 1234 "}`))
	require.NoError(t, err)

	secret, err := DecodePayload[string](env)
	require.NoError(t, err)
	assert.Equal(t, " 1234 ", secret)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = Decode([]byte(`{"payload":"x"}`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	env, err := Decode([]byte(`{"type":"login"}`))
	require.NoError(t, err)
	_, err = DecodePayload[string](env)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	env, _ = Decode([]byte(`{"type":"login","payload":{"secret":"1234"}}`))
	_, err = DecodePayload[string](env)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestEncodeMessage(t *testing.T) {
	data, err := EncodeMessage(MessageNewGameRequest, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"newGameRequest"}`, string(data))

	data, err = EncodeMessage(MessageRequestGame, "conn-b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"requestGame","payload":"conn-b"}`, string(data))
}
