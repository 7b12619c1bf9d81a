package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	redisx "github.com/lucasvdj/rifa-go/internal/redis"
)

// BonusStore keeps the daily bonus number. One key per calendar day;
// keys expire on their own after two days so stale picks never linger.
type BonusStore struct {
	rdb *redis.Client
}

func NewBonusStore(rdb *redis.Client) *BonusStore {
	return &BonusStore{rdb: rdb}
}

func (s *BonusStore) Get(ctx context.Context, raffleID, day string) (int, bool, error) {
	v, err := s.rdb.Get(ctx, redisx.KeyBonusNumber(raffleID, day)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}

	return n, true, nil
}

func (s *BonusStore) Set(ctx context.Context, raffleID, day string, number int) error {
	return s.rdb.Set(
		ctx,
		redisx.KeyBonusNumber(raffleID, day),
		strconv.Itoa(number),
		48*time.Hour,
	).Err()
}
