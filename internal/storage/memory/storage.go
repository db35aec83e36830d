package memory

import (
	"context"
	"sync"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	// Keyed by secret fingerprint
	credentials map[string]string
	claims      map[string]model.ConnectionID

	sessions map[model.SessionID]*model.GameSession
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		credentials: make(map[string]string),
		claims:      make(map[string]model.ConnectionID),
		sessions:    make(map[model.SessionID]*model.GameSession),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Credential operations

func (s *Storage) SaveCredentials(ctx context.Context, credentials []model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range credentials {
		s.credentials[storage.Fingerprint(c.Secret)] = c.DisplayName
	}
	return nil
}

func (s *Storage) GetDisplayName(ctx context.Context, secret string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.credentials[storage.Fingerprint(secret)]
	if !ok {
		return "", model.ErrCredentialNotFound
	}
	return name, nil
}

func (s *Storage) CountCredentials(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.credentials), nil
}

// Claim operations

func (s *Storage) ClaimSecret(ctx context.Context, secret string, holder model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storage.Fingerprint(secret)
	if _, ok := s.claims[key]; ok {
		return model.ErrSecretAlreadyActive
	}
	s.claims[key] = holder
	return nil
}

func (s *Storage) ReleaseSecret(ctx context.Context, secret string, holder model.ConnectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storage.Fingerprint(secret)
	if s.claims[key] == holder {
		delete(s.claims, key)
	}
	return nil
}

func (s *Storage) CountClaims(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims), nil
}

func (s *Storage) ClearClaims(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.claims)
	clear(s.claims)
	return n, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.GameSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *Storage) CountSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
