package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/timesheet"
)

// DraftStore keeps weekly drafts in Redis so they follow the account across
// devices and server restarts.
type DraftStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

var _ timesheet.DraftStore = (*DraftStore)(nil)

// NewClient connects and pings, failing fast on a bad address.
func NewClient(ctx context.Context, cfg internal.RedisConfig) (goredis.UniversalClient, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// NewDraftStore wraps client. A zero ttl keeps drafts until deleted.
func NewDraftStore(client goredis.UniversalClient, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) Get(ctx context.Context, accountID string, weekStart time.Time) ([]timesheet.DraftRow, error) {
	raw, err := s.client.Get(ctx, timesheet.DraftKey(accountID, weekStart)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rows []timesheet.DraftRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return rows, nil
}

func (s *DraftStore) Put(ctx context.Context, accountID string, weekStart time.Time, rows []timesheet.DraftRow) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, timesheet.DraftKey(accountID, weekStart), raw, s.ttl).Err()
}

func (s *DraftStore) Delete(ctx context.Context, accountID string, weekStart time.Time) error {
	return s.client.Del(ctx, timesheet.DraftKey(accountID, weekStart)).Err()
}
