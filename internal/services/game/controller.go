package game

import (
	"log/slog"
	"slices"

	"github.com/mcoot/bingohall/internal/dependencies/clock"
	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/notify"
	"github.com/mcoot/bingohall/internal/services/caller"
	"github.com/mcoot/bingohall/internal/services/registry"
	"github.com/mcoot/bingohall/internal/services/wins"
)

// Controller manages the game state machine, number calling, claims and the
// finance ledger. It is not safe for concurrent use; the coordinator loop owns it.
type Controller struct {
	session   *model.Session
	registry  *registry.Registry
	caller    *caller.Caller
	validator *wins.Validator
	clock     clock.Clock
	logger    *slog.Logger
}

// NewController creates a new Controller with a fresh session in the waiting phase
func NewController(
	registry *registry.Registry,
	caller *caller.Caller,
	validator *wins.Validator,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		session:   model.NewSession(clock.Now()),
		registry:  registry,
		caller:    caller,
		validator: validator,
		clock:     clock,
		logger:    logger.With(slog.String("component", "game")),
	}
}

// Session returns a copy of the current session
func (c *Controller) Session() model.Session {
	s := *c.session
	s.CalledNumbers = slices.Clone(c.session.CalledNumbers)
	s.Winners = slices.Clone(c.session.Winners)
	return s
}

// Phase returns the current phase
func (c *Controller) Phase() model.Phase {
	return c.session.Phase
}

// Snapshot returns the read-only view served over HTTP
func (c *Controller) Snapshot() model.Snapshot {
	return model.Snapshot{
		Status:        c.session.Phase,
		CalledNumbers: slices.Clone(c.session.CalledNumbers),
		CurrentNumber: c.session.CurrentNumber,
		PlayerCount:   c.registry.Count(),
		AutoCall:      c.session.AutoCall,
	}
}

// Winners returns every winner recorded so far
func (c *Controller) Winners() []model.Winner {
	return slices.Clone(c.session.Winners)
}

// Finance returns the ledger
func (c *Controller) Finance() model.Finance {
	return c.session.Finance
}

// Start begins a new round from waiting or ended. Called numbers, the current
// number and every player's marks are cleared.
func (c *Controller) Start() error {
	switch c.session.Phase {
	case model.PhaseWaiting, model.PhaseEnded:
	default:
		return model.ErrAlreadyStarted
	}

	now := c.clock.Now()
	c.session.Phase = model.PhasePlaying
	c.session.CalledNumbers = []int{}
	c.session.CurrentNumber = 0
	c.session.Round++
	c.session.RoundStartedAt = now
	c.session.UpdatedAt = now
	c.registry.ClearMarks()

	c.logger.Info("round started", slog.Int("round", c.session.Round))
	return nil
}

// TogglePause pauses a playing round or resumes a paused one.
// Returns the new phase.
func (c *Controller) TogglePause() (model.Phase, error) {
	switch c.session.Phase {
	case model.PhasePlaying:
		c.session.Phase = model.PhasePaused
	case model.PhasePaused:
		c.session.Phase = model.PhasePlaying
	default:
		return c.session.Phase, model.ErrNotStarted
	}
	c.session.UpdatedAt = c.clock.Now()

	c.logger.Info("round pause toggled",
		slog.Int("round", c.session.Round),
		slog.String("phase", string(c.session.Phase)))
	return c.session.Phase, nil
}

// End finishes a playing or paused round and disables auto-call.
// Winners and finance are kept. Returns the summary of the round.
func (c *Controller) End() (model.RoundSummary, error) {
	switch c.session.Phase {
	case model.PhasePlaying, model.PhasePaused:
	default:
		return model.RoundSummary{}, model.ErrNotStarted
	}

	now := c.clock.Now()
	c.session.Phase = model.PhaseEnded
	c.session.AutoCall = false
	c.session.UpdatedAt = now

	summary := model.RoundSummary{
		Round:         c.session.Round,
		StartedAt:     c.session.RoundStartedAt,
		EndedAt:       now,
		CalledNumbers: slices.Clone(c.session.CalledNumbers),
		Winners:       c.session.RoundWinners(c.session.Round),
		Finance:       c.session.Finance,
		PlayerCount:   c.registry.Count(),
	}

	c.logger.Info("round ended",
		slog.Int("round", summary.Round),
		slog.Int("numbers_called", len(summary.CalledNumbers)),
		slog.Int("winners", len(summary.Winners)))
	return summary, nil
}

// CallNumber draws the next number. Only valid while playing.
func (c *Controller) CallNumber() (int, error) {
	if c.session.Phase != model.PhasePlaying {
		return 0, model.ErrNotPlaying
	}

	n, err := c.caller.Draw(c.session.CalledNumbers)
	if err != nil {
		return 0, err
	}

	c.session.CalledNumbers = append(c.session.CalledNumbers, n)
	c.session.CurrentNumber = n
	c.session.UpdatedAt = c.clock.Now()

	c.logger.Debug("number called",
		slog.Int("number", n),
		slog.Int("count", len(c.session.CalledNumbers)))
	return n, nil
}

// ClearNumbers empties the called numbers and current number of the round.
// Marks, winners and finance are untouched.
func (c *Controller) ClearNumbers() {
	c.session.CalledNumbers = []int{}
	c.session.CurrentNumber = 0
	c.session.UpdatedAt = c.clock.Now()
}

// SetAutoCall records whether timed calling is enabled
func (c *Controller) SetAutoCall(enabled bool) {
	c.session.AutoCall = enabled
	c.session.UpdatedAt = c.clock.Now()
}

// Register records a player's registration and adds the stake to income.
// Every registration is a purchase, so re-registering adds again.
func (c *Controller) Register(id model.PlayerID, details registry.Details, conn notify.Connection) (model.Player, error) {
	if id == "" {
		return model.Player{}, model.ErrMissingPlayerID
	}
	if err := c.validator.CheckStake(details.Stake); err != nil {
		return model.Player{}, err
	}
	if err := c.session.Finance.AddIncome(details.Stake); err != nil {
		c.logger.Warn("registration rejected",
			slog.String("player_id", string(id)),
			slog.Int64("stake", details.Stake),
			slog.Any("error", err))
		return model.Player{}, err
	}

	player := c.registry.Register(id, details, conn, c.clock.Now())

	c.logger.Info("player registered",
		slog.String("player_id", string(id)),
		slog.Int64("stake", details.Stake),
		slog.String("board_type", string(details.BoardType)))
	return player, nil
}

// MarkNumber records a mark on a player's board. Only valid while playing.
// Returns the player's marks after the change.
func (c *Controller) MarkNumber(id model.PlayerID, number int) ([]int, error) {
	if c.session.Phase != model.PhasePlaying {
		return nil, model.ErrNotPlaying
	}
	if !model.ValidNumber(number) {
		return nil, model.ErrInvalidNumber
	}

	marks, ok := c.registry.Mark(id, number)
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return marks, nil
}

// ClaimWin validates a player's claim and pays it out. Failed claims change nothing.
func (c *Controller) ClaimWin(id model.PlayerID, boardType model.BoardType) (model.Winner, error) {
	if c.session.Phase != model.PhasePlaying {
		return model.Winner{}, model.ErrNotPlaying
	}

	player, ok := c.registry.Get(id)
	if !ok {
		return model.Winner{}, model.ErrPlayerNotFound
	}

	claim, err := c.validator.Evaluate(player, boardType, c.session.CalledNumbers)
	if err != nil {
		c.logger.Debug("claim rejected",
			slog.String("player_id", string(id)),
			slog.Any("error", err))
		return model.Winner{}, err
	}

	if err := c.session.Finance.AddPayout(claim.Amount); err != nil {
		c.logger.Warn("claim rejected",
			slog.String("player_id", string(id)),
			slog.Int64("amount", claim.Amount),
			slog.Any("error", err))
		return model.Winner{}, err
	}

	now := c.clock.Now()
	winner := model.Winner{
		PlayerID:  player.ID,
		Name:      player.Name,
		Pattern:   claim.Pattern,
		Amount:    claim.Amount,
		Round:     c.session.Round,
		Timestamp: now,
	}
	c.session.Winners = append(c.session.Winners, winner)
	c.session.UpdatedAt = now

	c.logger.Info("winner declared",
		slog.String("player_id", string(id)),
		slog.String("pattern", claim.Pattern),
		slog.Int64("amount", claim.Amount),
		slog.Int("round", c.session.Round))
	return winner, nil
}
