package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/bingohall/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.RoundTTL = time.Hour
	cfg.MaxRounds = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func round(n int) model.RoundSummary {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return model.RoundSummary{
		Round:         n,
		StartedAt:     start,
		EndedAt:       start.Add(time.Duration(n) * time.Minute),
		CalledNumbers: []int{n, n + 1},
		Winners: []model.Winner{{
			PlayerID:  "p1",
			Name:      "Ann",
			Pattern:   "Line Pattern",
			Amount:    6984,
			Round:     n,
			Timestamp: start.Add(time.Minute),
		}},
		Finance:     model.Finance{TotalIncome: 100, TotalPayout: 6984, CurrentBalance: -6884},
		PlayerCount: 1,
	}
}

func (s *StorageSuite) TestListEmpty() {
	rounds, err := s.storage.ListRounds(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestSaveAndList() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(1)))
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(2)))

	rounds, err := s.storage.ListRounds(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(rounds, 2)
	s.Equal(2, rounds[0].Round)
	s.Equal(1, rounds[1].Round)
	s.Equal([]int{1, 2}, rounds[1].CalledNumbers)
	s.Require().Len(rounds[1].Winners, 1)
	s.Equal(int64(6984), rounds[1].Winners[0].Amount)
	s.True(round(1).EndedAt.Equal(rounds[1].EndedAt))
	s.Equal(int64(-6884), rounds[1].Finance.CurrentBalance)
}

func (s *StorageSuite) TestListRespectsLimit() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.storage.SaveRound(s.ctx, round(i)))
	}

	rounds, err := s.storage.ListRounds(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(rounds, 1)
	s.Equal(3, rounds[0].Round)
}

func (s *StorageSuite) TestTrimsToMaxRounds() {
	for i := 1; i <= 5; i++ {
		s.Require().NoError(s.storage.SaveRound(s.ctx, round(i)))
	}

	length, err := s.storage.client.LLen(s.ctx, roundsKey()).Result()
	s.Require().NoError(err)
	s.Equal(int64(3), length)

	rounds, err := s.storage.ListRounds(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal(5, rounds[0].Round)
	s.Equal(3, rounds[2].Round)
}

func (s *StorageSuite) TestArchiveExpires() {
	s.Require().NoError(s.storage.SaveRound(s.ctx, round(1)))
	s.Equal(time.Hour, s.mini.TTL(roundsKey()))

	s.mini.FastForward(2 * time.Hour)

	rounds, err := s.storage.ListRounds(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(rounds)
}

func (s *StorageSuite) TestCorruptEntry() {
	s.Require().NoError(s.storage.client.LPush(s.ctx, roundsKey(), "not json").Err())

	_, err := s.storage.ListRounds(s.ctx, 0)
	s.Error(err)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))
}
