package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/noughts/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Credential tests

func (s *StorageSuite) TestSaveAndGetDisplayName() {
	err := s.storage.SaveCredentials(s.ctx, []model.Credential{
		{Secret: "1234", DisplayName: "Player1"},
		{Secret: "5678", DisplayName: "Player2"},
	})
	s.Require().NoError(err)

	name, err := s.storage.GetDisplayName(s.ctx, "5678")
	s.Require().NoError(err)
	s.Equal("Player2", name)

	count, err := s.storage.CountCredentials(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *StorageSuite) TestGetDisplayNameNotFound() {
	_, err := s.storage.GetDisplayName(s.ctx, "0000")
	s.ErrorIs(err, model.ErrCredentialNotFound)
}

func (s *StorageSuite) TestSecretsAreNotStoredInClear() {
	_ = s.storage.SaveCredentials(s.ctx, []model.Credential{{Secret: "1234", DisplayName: "Player1"}})

	_, ok := s.storage.credentials["1234"]
	s.False(ok)
}

// Claim tests

func (s *StorageSuite) TestClaimSecret() {
	s.Require().NoError(s.storage.ClaimSecret(s.ctx, "1234", "conn-1"))

	err := s.storage.ClaimSecret(s.ctx, "1234", "conn-2")
	s.ErrorIs(err, model.ErrSecretAlreadyActive)

	count, _ := s.storage.CountClaims(s.ctx)
	s.Equal(1, count)
}

func (s *StorageSuite) TestReleaseSecretByHolder() {
	_ = s.storage.ClaimSecret(s.ctx, "1234", "conn-1")

	s.Require().NoError(s.storage.ReleaseSecret(s.ctx, "1234", "conn-1"))

	s.NoError(s.storage.ClaimSecret(s.ctx, "1234", "conn-2"))
}

func (s *StorageSuite) TestReleaseSecretByOtherHolderIsIgnored() {
	_ = s.storage.ClaimSecret(s.ctx, "1234", "conn-1")

	s.Require().NoError(s.storage.ReleaseSecret(s.ctx, "1234", "conn-2"))

	err := s.storage.ClaimSecret(s.ctx, "1234", "conn-3")
	s.ErrorIs(err, model.ErrSecretAlreadyActive)
}

func (s *StorageSuite) TestClearClaims() {
	_ = s.storage.ClaimSecret(s.ctx, "1234", "conn-1")

	cleared, err := s.storage.ClearClaims(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, cleared)
	s.NoError(s.storage.ClaimSecret(s.ctx, "1234", "conn-2"))
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	session := model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"conn-1", "conn-2"}, time.Now())
	s.Require().NoError(session.ApplyMove(4))

	s.Require().NoError(s.storage.SaveSession(s.ctx, session))

	retrieved, err := s.storage.GetSession(s.ctx, "s-1")
	s.Require().NoError(err)
	s.Equal(model.SymbolX, retrieved.Board[4])
	s.Equal(model.SymbolO, retrieved.Turn)
	s.Equal("Alice", retrieved.Players.X)
}

func (s *StorageSuite) TestSavedSessionIsIsolatedFromCaller() {
	session := model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"conn-1", "conn-2"}, time.Now())
	_ = s.storage.SaveSession(s.ctx, session)

	session.Board[0] = model.SymbolO

	retrieved, _ := s.storage.GetSession(s.ctx, "s-1")
	s.Equal(model.SymbolNone, retrieved.Board[0])
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	session := model.NewGameSession("s-1", model.Assignment{X: "Alice", O: "Bob"},
		[2]model.ConnectionID{"conn-1", "conn-2"}, time.Now())
	_ = s.storage.SaveSession(s.ctx, session)

	s.Require().NoError(s.storage.DeleteSession(s.ctx, "s-1"))

	_, err := s.storage.GetSession(s.ctx, "s-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	count, _ := s.storage.CountSessions(s.ctx)
	s.Equal(0, count)
}
