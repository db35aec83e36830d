package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/storage"
)

// Registry validates secrets against the credential store and ensures a
// secret backs at most one live connection
type Registry struct {
	storage storage.Storage
	logger  *slog.Logger

	mu    sync.Mutex
	bound map[model.ConnectionID]string // connection -> secret it holds
}

// New creates a new identity Registry
func New(storage storage.Storage, logger *slog.Logger) *Registry {
	return &Registry{
		storage: storage,
		logger:  logger.With(slog.String("component", "identity")),
		bound:   make(map[model.ConnectionID]string),
	}
}

// Authenticate binds the secret to the connection and returns its display name
func (r *Registry) Authenticate(ctx context.Context, connID model.ConnectionID, secret string) (string, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", model.ErrInvalidSecret
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bound[connID]; ok {
		return "", model.ErrAlreadyAuthenticated
	}

	name, err := r.storage.GetDisplayName(ctx, secret)
	if err != nil {
		if errors.Is(err, model.ErrCredentialNotFound) {
			return "", model.ErrInvalidSecret
		}
		return "", err
	}

	if err := r.storage.ClaimSecret(ctx, secret, connID); err != nil {
		return "", err
	}
	r.bound[connID] = secret

	r.logger.Info("connection authenticated",
		slog.String("connection_id", string(connID)),
		slog.String("player", name),
	)
	return name, nil
}

// Release returns the connection's secret to the available pool.
// Safe to call for connections that never authenticated.
func (r *Registry) Release(ctx context.Context, connID model.ConnectionID) {
	r.mu.Lock()
	secret, ok := r.bound[connID]
	delete(r.bound, connID)
	r.mu.Unlock()

	if !ok {
		return
	}

	// A fresh context so a cancelled request cannot leave the secret claimed
	if err := r.storage.ReleaseSecret(context.WithoutCancel(ctx), secret, connID); err != nil {
		r.logger.Error("failed to release secret",
			slog.String("connection_id", string(connID)),
			slog.String("error", err.Error()),
		)
		return
	}

	r.logger.Debug("secret released", slog.String("connection_id", string(connID)))
}

// IsAuthenticated returns true if the connection holds a secret
func (r *Registry) IsAuthenticated(connID model.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.bound[connID]
	return ok
}

// ActiveCount returns the number of authenticated connections
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bound)
}

// ReleaseAll returns every held secret. Used on shutdown so claims kept in a
// shared backend do not outlive the process.
func (r *Registry) ReleaseAll(ctx context.Context) int {
	r.mu.Lock()
	ids := make([]model.ConnectionID, 0, len(r.bound))
	for id := range r.bound {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Release(ctx, id)
	}
	return len(ids)
}
