package mailq

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on redis: a list for ready envelopes, a sorted
// set for scheduled retries, and one key per envelope body.
type RedisQueue struct {
	rdb        *redis.Client
	name       string
	maxRetries int
}

// NewRedisQueue creates a redis-backed mail queue. maxRetries caps delivery
// attempts for envelopes that do not set their own; zero means the default
// of 3.
func NewRedisQueue(rdb *redis.Client, name string, maxRetries int) *RedisQueue {
	if name == "" {
		name = "mail"
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RedisQueue{rdb: rdb, name: name, maxRetries: maxRetries}
}

func (q *RedisQueue) readyKey() string     { return fmt.Sprintf("mailq:%s:ready", q.name) }
func (q *RedisQueue) scheduledKey() string { return fmt.Sprintf("mailq:%s:scheduled", q.name) }
func (q *RedisQueue) envKey(id string) string {
	return fmt.Sprintf("mailq:%s:env:%s", q.name, id)
}

// Enqueue stores the envelope and pushes it onto the ready list.
func (q *RedisQueue) Enqueue(ctx context.Context, env Envelope) (string, error) {
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	env.Status = StatusPending
	env.CreatedAt = now
	env.UpdatedAt = now
	if env.MaxRetries == 0 {
		env.MaxRetries = q.maxRetries
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", mailqErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.Pipeline()
	pipe.Set(ctx, q.envKey(env.ID), data, 24*time.Hour)
	pipe.LPush(ctx, q.readyKey(), env.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", mailqErrors.NewWithCause(ErrEnqueueFailed, err).WithDetail("to", env.To)
	}

	return env.ID, nil
}

// Dequeue blocks for the next ready envelope and marks it sending.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	result, err := q.rdb.BRPop(ctx, timeout, q.readyKey()).Result()
	if err != nil {
		if err == redis.Nil || ctx.Err() != nil {
			return nil, nil
		}
		return nil, mailqErrors.NewWithCause(ErrDequeueFailed, err)
	}

	env, err := q.get(ctx, result[1])
	if err != nil {
		return nil, err
	}

	env.Status = StatusSending
	env.Attempts++
	env.UpdatedAt = time.Now().UTC()
	if err := q.put(ctx, env); err != nil {
		return nil, err
	}

	return env, nil
}

// Delivered marks an envelope as sent.
func (q *RedisQueue) Delivered(ctx context.Context, id string) error {
	env, err := q.get(ctx, id)
	if err != nil {
		return err
	}
	env.Status = StatusDelivered
	env.UpdatedAt = time.Now().UTC()
	return q.put(ctx, env)
}

// Fail records a delivery error and reports whether retries remain.
func (q *RedisQueue) Fail(ctx context.Context, id string, errMsg string) (bool, error) {
	env, err := q.get(ctx, id)
	if err != nil {
		return false, err
	}

	retry := env.Attempts < env.MaxRetries
	if retry {
		env.Status = StatusRetrying
	} else {
		env.Status = StatusFailed
	}
	env.Error = errMsg
	env.UpdatedAt = time.Now().UTC()

	if err := q.put(ctx, env); err != nil {
		return false, err
	}
	return retry, nil
}

// Retry schedules the envelope for redelivery after delay.
func (q *RedisQueue) Retry(ctx context.Context, id string, delay time.Duration) error {
	score := float64(time.Now().UTC().Add(delay).Unix())
	if err := q.rdb.ZAdd(ctx, q.scheduledKey(), redis.Z{Score: score, Member: id}).Err(); err != nil {
		return mailqErrors.NewWithCause(ErrUpdateFailed, err).WithDetail("envelope_id", id)
	}
	return nil
}

// promoteScript atomically moves due retries back to the ready list.
var promoteScript = redis.NewScript(`
local scheduled_key = KEYS[1]
local ready_key = KEYS[2]
local now = tonumber(ARGV[1])
local ids = redis.call('ZRANGEBYSCORE', scheduled_key, '-inf', now)
if #ids > 0 then
    for _, id in ipairs(ids) do
        redis.call('LPUSH', ready_key, id)
    end
    redis.call('ZREMRANGEBYSCORE', scheduled_key, '-inf', now)
end
return #ids
`)

// PromoteScheduled moves envelopes whose retry time has passed onto the
// ready list.
func (q *RedisQueue) PromoteScheduled(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(), q.readyKey()}, now).Err()
	if err != nil && err != redis.Nil {
		return mailqErrors.NewWithCause(ErrUpdateFailed, err)
	}
	return nil
}

func (q *RedisQueue) get(ctx context.Context, id string) (*Envelope, error) {
	data, err := q.rdb.Get(ctx, q.envKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, mailqErrors.New(ErrNotFound).WithDetail("envelope_id", id)
		}
		return nil, mailqErrors.NewWithCause(ErrDequeueFailed, err).WithDetail("envelope_id", id)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, mailqErrors.NewWithCause(ErrUnmarshal, err).WithDetail("envelope_id", id)
	}
	return &env, nil
}

func (q *RedisQueue) put(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return mailqErrors.NewWithCause(ErrMarshal, err)
	}
	if err := q.rdb.Set(ctx, q.envKey(env.ID), data, 24*time.Hour).Err(); err != nil {
		return mailqErrors.NewWithCause(ErrUpdateFailed, err).WithDetail("envelope_id", env.ID)
	}
	return nil
}
