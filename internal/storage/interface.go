package storage

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/noughts/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Credential operations
	SaveCredentials(ctx context.Context, credentials []model.Credential) error
	GetDisplayName(ctx context.Context, secret string) (string, error)
	CountCredentials(ctx context.Context) (int, error)

	// Claim operations. A secret is claimed by at most one holder at a time.
	ClaimSecret(ctx context.Context, secret string, holder model.ConnectionID) error
	ReleaseSecret(ctx context.Context, secret string, holder model.ConnectionID) error
	CountClaims(ctx context.Context) (int, error)
	// ClearClaims drops every claim and reports how many were held
	ClearClaims(ctx context.Context) (int, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.GameSession) error
	GetSession(ctx context.Context, id model.SessionID) (*model.GameSession, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	CountSessions(ctx context.Context) (int, error)
}

// Fingerprint returns the hex BLAKE2b-256 digest used to key a secret at rest
func Fingerprint(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
