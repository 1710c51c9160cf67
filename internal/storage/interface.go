package storage

import (
	"context"

	"github.com/mcoot/bingohall/internal/model"
)

// Storage defines the interface for the round archive.
// Live game state is never persisted; only finished rounds are.
type Storage interface {
	// SaveRound archives a finished round
	SaveRound(ctx context.Context, summary model.RoundSummary) error

	// ListRounds returns up to limit archived rounds, newest first.
	// A limit of zero or less returns every round kept.
	ListRounds(ctx context.Context, limit int) ([]model.RoundSummary, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}
