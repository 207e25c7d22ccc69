package challengeinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/portal/challenge"
	"github.com/redis/go-redis/v9"
)

// RedisChallengeRepository stores one challenge per normalized email. SET on
// the email key is what implements supersede: the newest issuance simply
// overwrites the previous record.
type RedisChallengeRepository struct {
	rdb *redis.Client

	// retention is the redis key lifetime. It is deliberately longer than the
	// challenge TTL so a late verification attempt gets ChallengeExpired
	// rather than ChallengeNotFound; expiry itself is always computed from
	// the record's wall-clock timestamps.
	retention time.Duration
}

// NewRedisChallengeRepository creates the redis-backed challenge repository.
func NewRedisChallengeRepository(rdb *redis.Client, ttl time.Duration) *RedisChallengeRepository {
	if ttl == 0 {
		ttl = challenge.DefaultTTL
	}
	return &RedisChallengeRepository{rdb: rdb, retention: 3 * ttl}
}

func challengeKey(email string) string {
	return fmt.Sprintf("portal:challenge:%s", email)
}

// Save writes the challenge under its email key, superseding any prior one.
func (r *RedisChallengeRepository) Save(ctx context.Context, ch *challenge.Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return errx.Wrap(err, "failed to encode challenge", errx.TypeInternal)
	}
	if err := r.rdb.Set(ctx, challengeKey(ch.Email), data, r.retention).Err(); err != nil {
		return errx.Wrap(err, "failed to save challenge", errx.TypeExternal)
	}
	return nil
}

// GetByEmail loads the current challenge for an email.
func (r *RedisChallengeRepository) GetByEmail(ctx context.Context, email string) (*challenge.Challenge, error) {
	data, err := r.rdb.Get(ctx, challengeKey(email)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, challenge.ErrChallengeNotFound()
		}
		return nil, errx.Wrap(err, "failed to load challenge", errx.TypeExternal)
	}

	var ch challenge.Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, errx.Wrap(err, "failed to decode challenge", errx.TypeInternal)
	}
	return &ch, nil
}

// Update rewrites the challenge, preserving the remaining retention window.
func (r *RedisChallengeRepository) Update(ctx context.Context, ch *challenge.Challenge) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return errx.Wrap(err, "failed to encode challenge", errx.TypeInternal)
	}
	if err := r.rdb.Set(ctx, challengeKey(ch.Email), data, redis.KeepTTL).Err(); err != nil {
		return errx.Wrap(err, "failed to update challenge", errx.TypeExternal)
	}
	return nil
}

// Delete removes the challenge for an email.
func (r *RedisChallengeRepository) Delete(ctx context.Context, email string) error {
	if err := r.rdb.Del(ctx, challengeKey(email)).Err(); err != nil {
		return errx.Wrap(err, "failed to delete challenge", errx.TypeExternal)
	}
	return nil
}
