package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/bingohall/internal/model"
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
	s.storage = New(3)
	s.ctx = context.Background()
}

func round(n int) model.RoundSummary {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return model.RoundSummary{
		Round:         n,
		StartedAt:     start,
		EndedAt:       start.Add(time.Duration(n) * time.Minute),
		CalledNumbers: []int{n, n + 1},
		Winners:       []model.Winner{{PlayerID: "p1", Pattern: "Row Pattern", Amount: 10, Round: n}},
		Finance:       model.Finance{TotalIncome: 100, TotalPayout: 10, CurrentBalance: 90},
		PlayerCount:   2,
	}
}

func (s *StorageSuite) TestListEmpty() {
	rounds, err := s.storage.ListRounds(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestSaveAndListNewestFirst() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(1)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(2)))

	rounds, err := s.storage.ListRounds(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(2, rounds[0].Round)
	s.Equal(1, rounds[1].Round)
	s.Equal(round(1), rounds[1])
}

func (s *StorageSuite) TestListRespectsLimit() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.storage.SaveRound(s.ctx, round(i)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, 2)
	s.Require().NoError(err)
	s.Len(rounds, 2)
	s.Equal(3, rounds[0].Round)
}

func (s *StorageSuite) TestTrimsToMaxRounds() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.storage.SaveRound(s.ctx, round(i)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 3)
	s.Equal(5, rounds[0].Round)
	s.Equal(3, rounds[2].Round)
}

func (s *StorageSuite) TestReturnedRoundsAreCopies() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(1)))

	rounds, err := s.storage.ListRounds(s.ctx, 1)
	s.Require().NoError(err)
	rounds[0].CalledNumbers[0] = 99

	rounds, err = s.storage.ListRounds(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, rounds[0].CalledNumbers[0])
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}
