package wins

import (
	"math"

	"github.com/mcoot/bingohall/internal/model"
)

// Pattern labels reported for a successful claim
const (
	PatternRow       = "Row Pattern"
	PatternLine      = "Line Pattern"
	PatternSpecial   = "Special Pattern"
	PatternFullHouse = "Full House"
)

// Config holds the claim and payout rules
type Config struct {
	MinMarked          int  // Marks needed for a claim to qualify
	AssumedPlayers     int  // Fixed number of stakes the pot is computed from
	ProfitSharePct     int  // Share of the pot kept after house profit
	PoolSharePct       int  // Share of the remainder paid to the winner
	RequireCalledMarks bool // Reject claims with marks that were never called
	MaxStake           int64
}

// DefaultConfig returns the standard rules: 5 marks, 97% of a 90-stake pot, 80% to the winner
func DefaultConfig() Config {
	return Config{
		MinMarked:      5,
		AssumedPlayers: 90,
		ProfitSharePct: 97,
		PoolSharePct:   80,
		MaxStake:       DefaultMaxStake,
	}
}

// DefaultMaxStake caps a single registration at one billion currency units
const DefaultMaxStake int64 = 1_000_000_000

// SafeMaxStake is the largest stake whose payout fits in an int64 under the given rules
func SafeMaxStake(config Config) int64 {
	limit := int64(math.MaxInt64)
	for _, f := range []int{config.AssumedPlayers, config.ProfitSharePct, config.PoolSharePct} {
		if f <= 0 {
			return math.MaxInt64
		}
		limit /= int64(f)
	}
	return limit
}

func payoutFactor(config Config) int64 {
	return int64(config.AssumedPlayers) * int64(config.ProfitSharePct) * int64(config.PoolSharePct)
}

// Claim is the outcome of a qualifying claim
type Claim struct {
	Pattern string
	Amount  int64
}

// Validator decides whether a claim wins and what it pays
type Validator struct {
	config Config
}

// New creates a new Validator
func New(config Config) *Validator {
	return &Validator{
		config: config,
	}
}

// Pattern returns the pattern label for a board type
func Pattern(boardType model.BoardType) string {
	switch boardType {
	case model.BoardType75Ball, model.BoardType50Ball:
		return PatternRow
	case model.BoardType90Ball:
		return PatternLine
	case model.BoardTypePattern:
		return PatternSpecial
	default:
		return PatternFullHouse
	}
}

// MaxStake returns the largest stake accepted at registration.
// A zero or oversized MaxStake is clamped to SafeMaxStake.
func (v *Validator) MaxStake() int64 {
	safe := SafeMaxStake(v.config)
	if v.config.MaxStake <= 0 || v.config.MaxStake > safe {
		return safe
	}
	return v.config.MaxStake
}

// CheckStake returns ErrInvalidStake for a negative stake or one above MaxStake
func (v *Validator) CheckStake(stake int64) error {
	if stake < 0 || stake > v.MaxStake() {
		return model.ErrInvalidStake
	}
	return nil
}

// Payout computes the prize for a stake in integer currency units, rounding down.
// Stakes above MaxStake return ErrInvalidStake instead of wrapping.
func (v *Validator) Payout(stake int64) (int64, error) {
	if stake <= 0 {
		return 0, nil
	}
	if err := v.CheckStake(stake); err != nil {
		return 0, err
	}
	return stake * payoutFactor(v.config) / 10000, nil
}

// Evaluate checks a player's claim against the called numbers.
// It does not check the game phase.
func (v *Validator) Evaluate(player model.Player, boardType model.BoardType, called []int) (Claim, error) {
	if len(player.MarkedNumbers) < v.config.MinMarked {
		return Claim{}, model.ErrNoWinningPattern
	}

	if v.config.RequireCalledMarks {
		calledSet := make(map[int]bool, len(called))
		for _, n := range called {
			calledSet[n] = true
		}
		for _, n := range player.MarkedNumbers {
			if !calledSet[n] {
				return Claim{}, model.ErrUncalledMarks
			}
		}
	}

	amount, err := v.Payout(player.Stake)
	if err != nil {
		return Claim{}, err
	}

	return Claim{
		Pattern: Pattern(boardType),
		Amount:  amount,
	}, nil
}
