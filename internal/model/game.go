package model

import (
	"slices"
	"time"
)

// Phase is the overall state of the game session
type Phase string

const (
	PhaseWaiting Phase = "waiting" // No round started yet
	PhasePlaying Phase = "playing" // Numbers are being called, claims accepted
	PhasePaused  Phase = "paused"  // Round suspended by the admin
	PhaseEnded   Phase = "ended"   // Round finished, awaiting restart
)

// Number range for a 75-ball game
const (
	MinNumber = 1
	MaxNumber = 75
)

// ValidNumber returns true if n can be called or marked
func ValidNumber(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}

// Winner is an append-only record of a successful claim
type Winner struct {
	PlayerID  PlayerID  `json:"playerId"`
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Amount    int64     `json:"amount"`
	Round     int       `json:"round"`
	Timestamp time.Time `json:"timestamp"`
}

// Finance is the running ledger for the session.
// CurrentBalance always equals TotalIncome - TotalPayout.
type Finance struct {
	TotalIncome    int64 `json:"totalIncome"`
	TotalPayout    int64 `json:"totalPayout"`
	CurrentBalance int64 `json:"currentBalance"`
}

// AddIncome records a stake. The ledger is left untouched on ErrLedgerOverflow.
func (f *Finance) AddIncome(amount int64) error {
	total, ok := addChecked(f.TotalIncome, amount)
	if !ok {
		return ErrLedgerOverflow
	}
	balance, ok := subChecked(total, f.TotalPayout)
	if !ok {
		return ErrLedgerOverflow
	}
	f.TotalIncome = total
	f.CurrentBalance = balance
	return nil
}

// AddPayout records a prize paid out. The ledger is left untouched on ErrLedgerOverflow.
func (f *Finance) AddPayout(amount int64) error {
	total, ok := addChecked(f.TotalPayout, amount)
	if !ok {
		return ErrLedgerOverflow
	}
	balance, ok := subChecked(f.TotalIncome, total)
	if !ok {
		return ErrLedgerOverflow
	}
	f.TotalPayout = total
	f.CurrentBalance = balance
	return nil
}

func addChecked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func subChecked(a, b int64) (int64, bool) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, false
	}
	return diff, true
}

// Session is the authoritative state of the bingo game.
// It lives for the process lifetime and is reset, not replaced, on each start.
type Session struct {
	Phase         Phase
	CalledNumbers []int
	CurrentNumber int // 0 when nothing has been called this round
	AutoCall      bool
	Winners       []Winner
	Finance       Finance

	Round          int
	RoundStartedAt time.Time
	UpdatedAt      time.Time
}

// NewSession creates a session in the waiting phase
func NewSession(now time.Time) *Session {
	return &Session{
		Phase:         PhaseWaiting,
		CalledNumbers: []int{},
		Winners:       []Winner{},
		UpdatedAt:     now,
	}
}

// IsCalled returns true if n has been called this round
func (s *Session) IsCalled(n int) bool {
	return slices.Contains(s.CalledNumbers, n)
}

// RoundWinners returns the winners recorded during the given round
func (s *Session) RoundWinners(round int) []Winner {
	result := []Winner{}
	for _, w := range s.Winners {
		if w.Round == round {
			result = append(result, w)
		}
	}
	return result
}

// Snapshot is the read-only view exposed to HTTP clients
type Snapshot struct {
	Status        Phase `json:"status"`
	CalledNumbers []int `json:"calledNumbers"`
	CurrentNumber int   `json:"currentNumber"`
	PlayerCount   int   `json:"playerCount"`
	AutoCall      bool  `json:"autoCall"`
}

// RoundSummary is the archived record of a finished round
type RoundSummary struct {
	Round         int       `json:"round"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	CalledNumbers []int     `json:"calledNumbers"`
	Winners       []Winner  `json:"winners"`
	Finance       Finance   `json:"finance"`
	PlayerCount   int       `json:"playerCount"`
}
