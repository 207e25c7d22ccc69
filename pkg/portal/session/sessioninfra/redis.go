package sessioninfra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/portal/session"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "portal:session:"

// RedisSessionStore persists sessions in redis so replicas share them.
// Records outlive the inactivity window by a wide margin; expiry is decided
// by the manager from timestamps, the redis TTL only garbage-collects
// records nobody will ask about again.
type RedisSessionStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl == 0 {
		ttl = session.DefaultTTL
	}
	return &RedisSessionStore{
		client:    client,
		retention: 24*time.Hour + ttl,
	}
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errx.Wrap(err, "failed to serialize session", errx.TypeInternal)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ID.String(), data, s.retention).Err(); err != nil {
		return session.ErrStoreUnavailable().WithDetail("error", err.Error())
	}
	return nil
}

func (s *RedisSessionStore) Find(ctx context.Context, id kernel.SessionID) (*session.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, session.ErrNotFound()
	}
	if err != nil {
		return nil, session.ErrStoreUnavailable().WithDetail("error", err.Error())
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errx.Wrap(err, "failed to deserialize session", errx.TypeInternal)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id kernel.SessionID) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		return session.ErrStoreUnavailable().WithDetail("error", err.Error())
	}
	return nil
}
