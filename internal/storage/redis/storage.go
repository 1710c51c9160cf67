package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/bingohall/internal/model"
	"github.com/mcoot/bingohall/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveRound(ctx context.Context, summary model.RoundSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	// Push, trim and refresh expiry atomically
	key := roundsKey()
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.cfg.MaxRounds > 0 {
		pipe.LTrim(ctx, key, 0, int64(s.cfg.MaxRounds-1))
	}
	if s.cfg.RoundTTL > 0 {
		pipe.Expire(ctx, key, s.cfg.RoundTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListRounds(ctx context.Context, limit int) ([]model.RoundSummary, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	entries, err := s.client.LRange(ctx, roundsKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]model.RoundSummary, 0, len(entries))
	for i, entry := range entries {
		var summary model.RoundSummary
		if err := json.Unmarshal([]byte(entry), &summary); err != nil {
			return nil, fmt.Errorf("decode round at index %d: %w", i, err)
		}
		rounds = append(rounds, summary)
	}
	return rounds, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
