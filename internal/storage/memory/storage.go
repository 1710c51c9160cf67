package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	// rounds is kept newest first
	rounds    []model.RoundSummary
	maxRounds int
}

// New creates a new in-memory storage instance keeping at most maxRounds
// rounds. Zero keeps every round.
func New(maxRounds int) *Storage {
	return &Storage{
		rounds:    []model.RoundSummary{},
		maxRounds: maxRounds,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRound(ctx context.Context, summary model.RoundSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = slices.Insert(s.rounds, 0, cloneSummary(summary))
	if s.maxRounds > 0 && len(s.rounds) > s.maxRounds {
		s.rounds = s.rounds[:s.maxRounds]
	}
	return nil
}

func (s *Storage) ListRounds(ctx context.Context, limit int) ([]model.RoundSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.rounds)
	if limit > 0 && limit < n {
		n = limit
	}
	result := make([]model.RoundSummary, 0, n)
	for _, r := range s.rounds[:n] {
		result = append(result, cloneSummary(r))
	}
	return result, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func cloneSummary(r model.RoundSummary) model.RoundSummary {
	r.CalledNumbers = slices.Clone(r.CalledNumbers)
	r.Winners = slices.Clone(r.Winners)
	return r
}
