package game

import (
	"math"
	"testing"
	"time"

	"github.com/mcoot/bingohall/internal/dependencies/mocks"
	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/services/caller"
	"github.com/mcoot/bingohall/internal/services/registry"
	"github.com/mcoot/bingohall/internal/services/wins"
	"github.com/mcoot/bingohall/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type ControllerSuite struct {
	suite.Suite
	registry   *registry.Registry
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.useRules(wins.DefaultConfig())
}

func (s *ControllerSuite) useRules(cfg wins.Config) {
	logger := testutil.NopLogger()
	s.registry = registry.New(logger)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(
		s.registry,
		caller.New(s.random),
		wins.New(cfg),
		s.clock,
		logger,
	)
}

func (s *ControllerSuite) connect(id model.PlayerID) {
	s.registry.Connect(id, string(id), testutil.NewFakeConn("conn-"+string(id)), s.clock.Now())
}

func (s *ControllerSuite) register(id model.PlayerID, stake int64, boardType model.BoardType) {
	_, err := s.controller.Register(id, registry.Details{Name: string(id), Stake: stake, BoardType: boardType}, nil)
	s.Require().NoError(err)
}

func (s *ControllerSuite) markAll(id model.PlayerID, numbers ...int) {
	for _, n := range numbers {
		_, err := s.controller.MarkNumber(id, n)
		s.Require().NoError(err)
	}
}

func (s *ControllerSuite) assertBalanced() {
	f := s.controller.Finance()
	s.Equal(f.TotalIncome-f.TotalPayout, f.CurrentBalance)
}

// Phase transition tests

func (s *ControllerSuite) TestNewSessionIsWaiting() {
	session := s.controller.Session()

	s.Equal(model.PhaseWaiting, session.Phase)
	s.Empty(session.CalledNumbers)
	s.Equal(0, session.CurrentNumber)
	s.Equal(0, session.Round)
}

func (s *ControllerSuite) TestStartFromWaiting() {
	s.Require().NoError(s.controller.Start())

	session := s.controller.Session()
	s.Equal(model.PhasePlaying, session.Phase)
	s.Equal(1, session.Round)
	s.Equal(s.clock.Now(), session.RoundStartedAt)
}

func (s *ControllerSuite) TestStartWhilePlayingFails() {
	s.Require().NoError(s.controller.Start())

	err := s.controller.Start()

	s.ErrorIs(err, model.ErrAlreadyStarted)
	s.ErrorIs(err, model.ErrState)
	s.Equal(1, s.controller.Session().Round)
}

func (s *ControllerSuite) TestStartWhilePausedFails() {
	s.Require().NoError(s.controller.Start())
	_, err := s.controller.TogglePause()
	s.Require().NoError(err)

	s.ErrorIs(s.controller.Start(), model.ErrAlreadyStarted)
	s.Equal(model.PhasePaused, s.controller.Phase())
}

func (s *ControllerSuite) TestRestartClearsCalledNumbersAndMarks() {
	s.connect("p1")
	s.Require().NoError(s.controller.Start())
	s.random.QueueIntn(4, 9)
	_, err := s.controller.CallNumber()
	s.Require().NoError(err)
	_, err = s.controller.CallNumber()
	s.Require().NoError(err)
	s.markAll("p1", 5, 10)
	_, err = s.controller.End()
	s.Require().NoError(err)

	s.Require().NoError(s.controller.Start())

	session := s.controller.Session()
	s.Equal(model.PhasePlaying, session.Phase)
	s.Empty(session.CalledNumbers)
	s.Equal(0, session.CurrentNumber)
	s.Equal(2, session.Round)
	p, _ := s.registry.Get("p1")
	s.Empty(p.MarkedNumbers)
}

func (s *ControllerSuite) TestPauseTogglesAndResumeKeepsState() {
	s.Require().NoError(s.controller.Start())
	s.random.QueueIntn(10)
	_, err := s.controller.CallNumber()
	s.Require().NoError(err)

	phase, err := s.controller.TogglePause()
	s.Require().NoError(err)
	s.Equal(model.PhasePaused, phase)

	phase, err = s.controller.TogglePause()
	s.Require().NoError(err)
	s.Equal(model.PhasePlaying, phase)
	s.Equal([]int{11}, s.controller.Session().CalledNumbers)
}

func (s *ControllerSuite) TestPauseBeforeStartFails() {
	_, err := s.controller.TogglePause()

	s.ErrorIs(err, model.ErrNotStarted)
	s.Equal(model.PhaseWaiting, s.controller.Phase())
}

func (s *ControllerSuite) TestEndProducesSummary() {
	s.connect("p1")
	s.register("p1", 100, model.BoardType90Ball)
	s.Require().NoError(s.controller.Start())
	s.controller.SetAutoCall(true)
	s.random.QueueIntn(0, 1, 2, 3, 4)
	for i := 0; i < 5; i++ {
		_, err := s.controller.CallNumber()
		s.Require().NoError(err)
	}
	s.markAll("p1", 1, 2, 3, 4, 5)
	_, err := s.controller.ClaimWin("p1", model.BoardType90Ball)
	s.Require().NoError(err)
	s.clock.Advance(10 * time.Minute)

	summary, err := s.controller.End()
	s.Require().NoError(err)

	s.Equal(1, summary.Round)
	s.Equal([]int{1, 2, 3, 4, 5}, summary.CalledNumbers)
	s.Require().Len(summary.Winners, 1)
	s.Equal(int64(6984), summary.Winners[0].Amount)
	s.Equal(int64(100), summary.Finance.TotalIncome)
	s.Equal(1, summary.PlayerCount)
	s.Equal(10*time.Minute, summary.EndedAt.Sub(summary.StartedAt))

	session := s.controller.Session()
	s.Equal(model.PhaseEnded, session.Phase)
	s.False(session.AutoCall)
	s.Len(session.Winners, 1)
}

func (s *ControllerSuite) TestEndFromPaused() {
	s.Require().NoError(s.controller.Start())
	_, err := s.controller.TogglePause()
	s.Require().NoError(err)

	_, err = s.controller.End()

	s.NoError(err)
	s.Equal(model.PhaseEnded, s.controller.Phase())
}

func (s *ControllerSuite) TestEndWhenNotStartedFails() {
	_, err := s.controller.End()

	s.ErrorIs(err, model.ErrNotStarted)
	s.Equal(model.PhaseWaiting, s.controller.Phase())
}

// Calling tests

func (s *ControllerSuite) TestCallNumberWhenNotPlaying() {
	_, err := s.controller.CallNumber()
	s.ErrorIs(err, model.ErrNotPlaying)

	s.Require().NoError(s.controller.Start())
	_, err = s.controller.TogglePause()
	s.Require().NoError(err)

	_, err = s.controller.CallNumber()
	s.ErrorIs(err, model.ErrNotPlaying)
	s.Empty(s.controller.Session().CalledNumbers)
}

func (s *ControllerSuite) TestCallNumberSetsCurrent() {
	s.Require().NoError(s.controller.Start())
	s.random.QueueIntn(41)

	n, err := s.controller.CallNumber()

	s.Require().NoError(err)
	s.Equal(42, n)
	s.Equal(42, s.controller.Session().CurrentNumber)
	s.Equal([]int{42}, s.controller.Snapshot().CalledNumbers)
}

func (s *ControllerSuite) TestCallAllNumbersThenExhausted() {
	s.Require().NoError(s.controller.Start())
	for i := 0; i < 75; i++ {
		_, err := s.controller.CallNumber()
		s.Require().NoError(err)
	}

	_, err := s.controller.CallNumber()

	s.ErrorIs(err, model.ErrNumbersExhausted)
	s.Len(s.controller.Session().CalledNumbers, 75)
}

func (s *ControllerSuite) TestClearNumbersKeepsMarksAndFinance() {
	s.connect("p1")
	s.register("p1", 30, model.BoardType75Ball)
	s.Require().NoError(s.controller.Start())
	_, err := s.controller.CallNumber()
	s.Require().NoError(err)
	s.markAll("p1", 1)

	s.controller.ClearNumbers()

	session := s.controller.Session()
	s.Empty(session.CalledNumbers)
	s.Equal(0, session.CurrentNumber)
	s.Equal(model.PhasePlaying, session.Phase)
	s.Equal(int64(30), session.Finance.TotalIncome)
	p, _ := s.registry.Get("p1")
	s.Equal([]int{1}, p.MarkedNumbers)
}

// Registration tests

func (s *ControllerSuite) TestRegisterAddsIncome() {
	s.connect("p1")

	s.register("p1", 50, model.BoardType75Ball)
	s.register("p1", 25, model.BoardType75Ball)

	f := s.controller.Finance()
	s.Equal(int64(75), f.TotalIncome)
	s.Equal(int64(75), f.CurrentBalance)
	p, _ := s.registry.Get("p1")
	s.Equal(int64(25), p.Stake)
}

func (s *ControllerSuite) TestRegisterRejectsNegativeStake() {
	_, err := s.controller.Register("p1", registry.Details{Stake: -1}, nil)

	s.ErrorIs(err, model.ErrInvalidStake)
	s.Equal(int64(0), s.controller.Finance().TotalIncome)
	s.Equal(0, s.registry.Count())
}

func (s *ControllerSuite) TestRegisterRejectsStakeAboveMax() {
	s.register("p1", wins.DefaultMaxStake, model.BoardType75Ball)

	_, err := s.controller.Register("p2", registry.Details{Stake: wins.DefaultMaxStake + 1}, nil)

	s.ErrorIs(err, model.ErrInvalidStake)
	s.Equal(wins.DefaultMaxStake, s.controller.Finance().TotalIncome)
	s.Equal(1, s.registry.Count())
	s.assertBalanced()
}

func (s *ControllerSuite) TestRegisterRejectsLargeStakeUnderDefaultRules() {
	_, err := s.controller.Register("p1", registry.Details{Stake: 20_000_000_000_000}, nil)

	s.ErrorIs(err, model.ErrInvalidStake)
	s.Equal(model.Finance{}, s.controller.Finance())
}

func (s *ControllerSuite) TestClaimAtLargestSafeStake() {
	rules := wins.DefaultConfig()
	rules.MaxStake = 0
	s.useRules(rules)
	limit := wins.SafeMaxStake(rules)

	s.connect("p1")
	s.register("p1", limit, model.BoardType90Ball)
	_, err := s.controller.Register("p2", registry.Details{Stake: limit + 1}, nil)
	s.Require().ErrorIs(err, model.ErrInvalidStake)

	s.Require().NoError(s.controller.Start())
	s.random.QueueIntn(0, 1, 2, 3, 4)
	for i := 0; i < 5; i++ {
		_, err := s.controller.CallNumber()
		s.Require().NoError(err)
	}
	s.markAll("p1", 1, 2, 3, 4, 5)

	winner, err := s.controller.ClaimWin("p1", model.BoardType90Ball)
	s.Require().NoError(err)

	s.Positive(winner.Amount)
	s.Equal(limit*698400/10000, winner.Amount)
	f := s.controller.Finance()
	s.Equal(limit, f.TotalIncome)
	s.Equal(winner.Amount, f.TotalPayout)
	s.Less(f.CurrentBalance, f.TotalIncome)
	s.assertBalanced()
}

func (s *ControllerSuite) TestRegisterRejectsIncomeOverflow() {
	// no pot, so any stake is payable
	rules := wins.DefaultConfig()
	rules.PoolSharePct = 0
	rules.MaxStake = math.MaxInt64
	s.useRules(rules)

	s.register("p1", math.MaxInt64, model.BoardType75Ball)

	_, err := s.controller.Register("p2", registry.Details{Stake: 1}, nil)

	s.ErrorIs(err, model.ErrLedgerOverflow)
	s.Equal(int64(math.MaxInt64), s.controller.Finance().TotalIncome)
	s.Equal(1, s.registry.Count())
	s.assertBalanced()
}

func (s *ControllerSuite) TestRegisterRequiresID() {
	_, err := s.controller.Register("", registry.Details{Stake: 10}, nil)

	s.ErrorIs(err, model.ErrMissingPlayerID)
	s.ErrorIs(err, model.ErrProtocol)
}

// Marking tests

func (s *ControllerSuite) TestMarkNumberOutsidePlaying() {
	s.connect("p1")

	_, err := s.controller.MarkNumber("p1", 5)

	s.ErrorIs(err, model.ErrNotPlaying)
}

func (s *ControllerSuite) TestMarkNumberOutOfRange() {
	s.connect("p1")
	s.Require().NoError(s.controller.Start())

	_, err := s.controller.MarkNumber("p1", 76)
	s.ErrorIs(err, model.ErrInvalidNumber)

	_, err = s.controller.MarkNumber("p1", 0)
	s.ErrorIs(err, model.ErrInvalidNumber)
}

func (s *ControllerSuite) TestMarkNumberUnknownPlayer() {
	s.Require().NoError(s.controller.Start())

	_, err := s.controller.MarkNumber("ghost", 5)

	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *ControllerSuite) TestMarkNumberIsIdempotent() {
	s.connect("p1")
	s.Require().NoError(s.controller.Start())

	s.markAll("p1", 5, 5, 6)

	p, _ := s.registry.Get("p1")
	s.Equal([]int{5, 6}, p.MarkedNumbers)
}

// Claim tests

func (s *ControllerSuite) TestClaimWinNotPlayingChangesNothing() {
	s.connect("p1")
	s.register("p1", 100, model.BoardType90Ball)

	_, err := s.controller.ClaimWin("p1", model.BoardType90Ball)

	s.ErrorIs(err, model.ErrNotPlaying)
	s.Empty(s.controller.Winners())
	s.Equal(int64(0), s.controller.Finance().TotalPayout)
}

func (s *ControllerSuite) TestClaimWinUnknownPlayer() {
	s.Require().NoError(s.controller.Start())

	_, err := s.controller.ClaimWin("ghost", model.BoardType75Ball)

	s.ErrorIs(err, model.ErrPlayerNotFound)
	s.Empty(s.controller.Winners())
}

func (s *ControllerSuite) TestClaimWinWithTooFewMarks() {
	s.connect("p1")
	s.register("p1", 100, model.BoardType75Ball)
	s.Require().NoError(s.controller.Start())
	s.markAll("p1", 1, 2, 3, 4)

	_, err := s.controller.ClaimWin("p1", model.BoardType75Ball)

	s.ErrorIs(err, model.ErrNoWinningPattern)
	s.Empty(s.controller.Winners())
	s.Equal(int64(100), s.controller.Finance().CurrentBalance)
}

func (s *ControllerSuite) TestClaimWinPaysOut() {
	s.connect("p1")
	s.register("p1", 100, model.BoardType90Ball)
	s.Require().NoError(s.controller.Start())
	s.markAll("p1", 1, 2, 3, 4, 5)

	winner, err := s.controller.ClaimWin("p1", model.BoardType90Ball)

	s.Require().NoError(err)
	s.Equal("Line Pattern", winner.Pattern)
	s.Equal(int64(6984), winner.Amount)
	s.Equal(model.PlayerID("p1"), winner.PlayerID)
	s.Equal(1, winner.Round)
	s.Equal(s.clock.Now(), winner.Timestamp)

	f := s.controller.Finance()
	s.Equal(int64(100), f.TotalIncome)
	s.Equal(int64(6984), f.TotalPayout)
	s.Equal(int64(-6884), f.CurrentBalance)
	s.assertBalanced()
}

func (s *ControllerSuite) TestWinnersAccumulateAcrossRounds() {
	s.connect("p1")
	s.register("p1", 10, model.BoardType75Ball)

	for round := 1; round <= 2; round++ {
		s.Require().NoError(s.controller.Start())
		s.markAll("p1", 1, 2, 3, 4, 5)
		_, err := s.controller.ClaimWin("p1", model.BoardType75Ball)
		s.Require().NoError(err)
		summary, err := s.controller.End()
		s.Require().NoError(err)
		s.Len(summary.Winners, 1)
		s.Equal(round, summary.Winners[0].Round)
	}

	s.Len(s.controller.Winners(), 2)
	s.assertBalanced()
}

func (s *ControllerSuite) TestSnapshot() {
	s.connect("p1")
	s.connect("p2")
	s.Require().NoError(s.controller.Start())
	s.controller.SetAutoCall(true)
	s.random.QueueIntn(6)
	_, err := s.controller.CallNumber()
	s.Require().NoError(err)

	snap := s.controller.Snapshot()

	s.Equal(model.Snapshot{
		Status:        model.PhasePlaying,
		CalledNumbers: []int{7},
		CurrentNumber: 7,
		PlayerCount:   2,
		AutoCall:      true,
	}, snap)
}

func (s *ControllerSuite) TestSessionCopyIsIsolated() {
	s.Require().NoError(s.controller.Start())
	_, err := s.controller.CallNumber()
	s.Require().NoError(err)

	session := s.controller.Session()
	session.CalledNumbers[0] = 99

	s.NotEqual(99, s.controller.Session().CalledNumbers[0])
}
