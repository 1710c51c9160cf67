package response

import (
	"time"

	"github.com/mcoot/bingohall/internal/model"
)

// Snapshot is the live game view
type Snapshot struct {
	Status        string `json:"status"`
	CalledNumbers []int  `json:"calledNumbers"`
	CurrentNumber int    `json:"currentNumber"`
	PlayerCount   int    `json:"playerCount"`
	AutoCall      bool   `json:"autoCall"`
}

// SnapshotFromModel converts model.Snapshot
func SnapshotFromModel(s model.Snapshot) Snapshot {
	called := s.CalledNumbers
	if called == nil {
		called = []int{}
	}
	return Snapshot{
		Status:        string(s.Status),
		CalledNumbers: called,
		CurrentNumber: s.CurrentNumber,
		PlayerCount:   s.PlayerCount,
		AutoCall:      s.AutoCall,
	}
}

// Winner represents a winner in API responses
type Winner struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name"`
	Pattern   string    `json:"pattern"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// WinnerFromModel converts model.Winner
func WinnerFromModel(w model.Winner) Winner {
	return Winner{
		PlayerID:  string(w.PlayerID),
		Name:      w.Name,
		Pattern:   w.Pattern,
		Amount:    w.Amount,
		Timestamp: w.Timestamp,
	}
}

// Finance represents the ledger
type Finance struct {
	TotalIncome    int64 `json:"totalIncome"`
	TotalPayout    int64 `json:"totalPayout"`
	CurrentBalance int64 `json:"currentBalance"`
}

// Round represents an archived round
type Round struct {
	Round         int       `json:"round"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
	CalledNumbers []int     `json:"calledNumbers"`
	Winners       []Winner  `json:"winners"`
	Finance       Finance   `json:"finance"`
	PlayerCount   int       `json:"playerCount"`
}

// RoundFromModel converts model.RoundSummary
func RoundFromModel(r model.RoundSummary) Round {
	winners := make([]Winner, len(r.Winners))
	for i, w := range r.Winners {
		winners[i] = WinnerFromModel(w)
	}
	called := r.CalledNumbers
	if called == nil {
		called = []int{}
	}
	return Round{
		Round:         r.Round,
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
		CalledNumbers: called,
		Winners:       winners,
		Finance: Finance{
			TotalIncome:    r.Finance.TotalIncome,
			TotalPayout:    r.Finance.TotalPayout,
			CurrentBalance: r.Finance.CurrentBalance,
		},
		PlayerCount: r.PlayerCount,
	}
}

// RoundsResponse lists archived rounds, newest first
type RoundsResponse struct {
	Rounds []Round `json:"rounds"`
}

// Health reports service status
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}
