package exchangeinfra

import (
	"context"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/redis/go-redis/v9"
)

const redemptionKeyPrefix = "portal:exchange:jti:"

// RedisRedemptionStore tracks un-redeemed exchange token IDs. A jti lives
// in redis from issuance until it is redeemed or its TTL lapses; GETDEL
// makes redemption atomic, so a token can win the race exactly once.
type RedisRedemptionStore struct {
	client *redis.Client
}

func NewRedisRedemptionStore(client *redis.Client) *RedisRedemptionStore {
	return &RedisRedemptionStore{client: client}
}

func (s *RedisRedemptionStore) Arm(ctx context.Context, jti string, ttl time.Duration) error {
	if err := s.client.Set(ctx, redemptionKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to arm exchange token", errx.TypeExternal)
	}
	return nil
}

func (s *RedisRedemptionStore) Redeem(ctx context.Context, jti string) (bool, error) {
	_, err := s.client.GetDel(ctx, redemptionKeyPrefix+jti).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errx.Wrap(err, "failed to redeem exchange token", errx.TypeExternal)
	}
	return true, nil
}
