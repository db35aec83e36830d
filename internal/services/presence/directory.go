package presence

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/noughts/internal/dependencies/clock"
	"github.com/mcoot/noughts/internal/model"
)

// Directory tracks authenticated participants and which of them are idle
// in the lobby. Pair and Unpair update both participants of a session
// under one lock.
type Directory struct {
	clock  clock.Clock
	logger *slog.Logger

	mu           sync.RWMutex
	order        []model.ConnectionID // join order
	participants map[model.ConnectionID]*model.Participant
}

// New creates an empty Directory
func New(clock clock.Clock, logger *slog.Logger) *Directory {
	return &Directory{
		clock:        clock,
		logger:       logger.With(slog.String("component", "presence")),
		participants: make(map[model.ConnectionID]*model.Participant),
	}
}

// Add registers an authenticated connection as an idle participant
func (d *Directory) Add(id model.ConnectionID, displayName string) (model.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.participants[id]; ok {
		return model.Participant{}, model.ErrAlreadyPresent
	}

	p := &model.Participant{
		ID:          id,
		DisplayName: displayName,
		JoinedAt:    d.clock.Now(),
	}
	d.participants[id] = p
	d.order = append(d.order, id)

	d.logger.Debug("participant added",
		slog.String("connection_id", string(id)),
		slog.String("player", displayName),
	)
	return *p, nil
}

// Remove drops a participant and returns its final state
func (d *Directory) Remove(id model.ConnectionID) (model.Participant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.participants[id]
	if !ok {
		return model.Participant{}, model.ErrParticipantNotFound
	}
	delete(d.participants, id)
	if i := slices.Index(d.order, id); i >= 0 {
		d.order = slices.Delete(d.order, i, i+1)
	}

	d.logger.Debug("participant removed", slog.String("connection_id", string(id)))
	return *p, nil
}

// Get returns a copy of the participant
func (d *Directory) Get(id model.ConnectionID) (model.Participant, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.participants[id]
	if !ok {
		return model.Participant{}, model.ErrParticipantNotFound
	}
	return *p, nil
}

// List returns the idle participants in join order
func (d *Directory) List() []model.RosterEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	roster := make([]model.RosterEntry, 0, len(d.order))
	for _, id := range d.order {
		p := d.participants[id]
		if p.InSession() {
			continue
		}
		roster = append(roster, model.RosterEntry{ID: p.ID, Name: p.DisplayName})
	}
	return roster
}

// Pair binds two idle participants to a session. Either both are bound or
// neither is.
func (d *Directory) Pair(a, b model.ConnectionID, sessionID model.SessionID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if a == b {
		return model.ErrTargetUnavailable
	}
	pa, okA := d.participants[a]
	pb, okB := d.participants[b]
	if !okA || !okB || pa.InSession() || pb.InSession() {
		return model.ErrTargetUnavailable
	}

	pa.SessionID = sessionID
	pb.SessionID = sessionID
	return nil
}

// Unpair clears the session reference from every participant bound to it
// and returns the connections that were released to the lobby
func (d *Directory) Unpair(sessionID model.SessionID) []model.ConnectionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	var released []model.ConnectionID
	for _, id := range d.order {
		p := d.participants[id]
		if p.SessionID == sessionID {
			p.SessionID = ""
			released = append(released, id)
		}
	}
	return released
}

// Counts returns the number of connected participants and how many are idle
func (d *Directory) Counts() (connected int, idle int) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, p := range d.participants {
		if !p.InSession() {
			idle++
		}
	}
	return len(d.participants), idle
}

// RosterEvent builds the playerList event for the current lobby
func (d *Directory) RosterEvent() model.Event {
	return model.Event{
		Type:    model.EventPlayerList,
		Payload: model.PlayerListPayload{Players: d.List()},
	}
}
