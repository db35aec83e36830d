package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/noughts/internal/dependencies/mocks"
	"github.com/mcoot/noughts/internal/model"
	"github.com/mcoot/noughts/internal/testutil"
)

type DirectorySuite struct {
	suite.Suite
	clock     *mocks.MockClock
	directory *Directory
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.directory = New(s.clock, testutil.NopLogger())
}

func (s *DirectorySuite) addAll(names ...string) {
	for _, name := range names {
		_, err := s.directory.Add(model.ConnectionID("conn-"+name), name)
		s.Require().NoError(err)
		s.clock.Advance(time.Second)
	}
}

func (s *DirectorySuite) TestAddAndGet() {
	p, err := s.directory.Add("conn-1", "Alice")
	s.Require().NoError(err)
	s.Equal("Alice", p.DisplayName)
	s.Equal(s.clock.Now(), p.JoinedAt)
	s.False(p.InSession())

	got, err := s.directory.Get("conn-1")
	s.Require().NoError(err)
	s.Equal(p, got)
}

func (s *DirectorySuite) TestAddDuplicate() {
	s.addAll("Alice")
	_, err := s.directory.Add("conn-Alice", "Alice")
	s.ErrorIs(err, model.ErrAlreadyPresent)
}

func (s *DirectorySuite) TestGetUnknown() {
	_, err := s.directory.Get("nobody")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *DirectorySuite) TestListPreservesJoinOrder() {
	s.addAll("Carol", "Alice", "Bob")

	s.Equal([]model.RosterEntry{
		{ID: "conn-Carol", Name: "Carol"},
		{ID: "conn-Alice", Name: "Alice"},
		{ID: "conn-Bob", Name: "Bob"},
	}, s.directory.List())
}

func (s *DirectorySuite) TestListEmpty() {
	s.NotNil(s.directory.List())
	s.Empty(s.directory.List())
}

func (s *DirectorySuite) TestRemove() {
	s.addAll("Alice", "Bob")

	p, err := s.directory.Remove("conn-Alice")
	s.Require().NoError(err)
	s.Equal("Alice", p.DisplayName)

	s.Equal([]model.RosterEntry{{ID: "conn-Bob", Name: "Bob"}}, s.directory.List())

	_, err = s.directory.Remove("conn-Alice")
	s.ErrorIs(err, model.ErrParticipantNotFound)
}

func (s *DirectorySuite) TestPairHidesFromRoster() {
	s.addAll("Alice", "Bob", "Carol")

	s.Require().NoError(s.directory.Pair("conn-Alice", "conn-Bob", "s-1"))

	s.Equal([]model.RosterEntry{{ID: "conn-Carol", Name: "Carol"}}, s.directory.List())

	alice, _ := s.directory.Get("conn-Alice")
	bob, _ := s.directory.Get("conn-Bob")
	s.Equal(model.SessionID("s-1"), alice.SessionID)
	s.Equal(model.SessionID("s-1"), bob.SessionID)

	connected, idle := s.directory.Counts()
	s.Equal(3, connected)
	s.Equal(1, idle)
}

func (s *DirectorySuite) TestPairIsAllOrNothing() {
	s.addAll("Alice", "Bob", "Carol")
	s.Require().NoError(s.directory.Pair("conn-Alice", "conn-Bob", "s-1"))

	err := s.directory.Pair("conn-Carol", "conn-Bob", "s-2")
	s.ErrorIs(err, model.ErrTargetUnavailable)

	carol, _ := s.directory.Get("conn-Carol")
	s.False(carol.InSession())
}

func (s *DirectorySuite) TestPairRejectsMissingOrSelf() {
	s.addAll("Alice")

	s.ErrorIs(s.directory.Pair("conn-Alice", "nobody", "s-1"), model.ErrTargetUnavailable)
	s.ErrorIs(s.directory.Pair("conn-Alice", "conn-Alice", "s-1"), model.ErrTargetUnavailable)

	alice, _ := s.directory.Get("conn-Alice")
	s.False(alice.InSession())
}

func (s *DirectorySuite) TestUnpairReturnsToLobby() {
	s.addAll("Alice", "Bob")
	s.Require().NoError(s.directory.Pair("conn-Alice", "conn-Bob", "s-1"))

	released := s.directory.Unpair("s-1")

	s.ElementsMatch([]model.ConnectionID{"conn-Alice", "conn-Bob"}, released)
	s.Len(s.directory.List(), 2)
	s.Empty(s.directory.Unpair("s-1"))
}

func (s *DirectorySuite) TestRosterEvent() {
	s.addAll("Alice")

	event := s.directory.RosterEvent()
	s.Equal(model.EventPlayerList, event.Type)
	s.Equal(model.PlayerListPayload{Players: []model.RosterEntry{{ID: "conn-Alice", Name: "Alice"}}}, event.Payload)
}
