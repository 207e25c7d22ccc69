package membershipinfra

import (
	"context"
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/redis/go-redis/v9"
)

const selectionKeyPrefix = "portal:company:selection:"

// RedisSelectionStore keeps active-company selections in redis so they
// survive restarts and are shared across replicas.
type RedisSelectionStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSelectionStore(client *redis.Client) *RedisSelectionStore {
	return &RedisSelectionStore{client: client, retention: 30 * 24 * time.Hour}
}

func (s *RedisSelectionStore) GetSelection(ctx context.Context, customerID kernel.CustomerID) (kernel.CompanyID, error) {
	val, err := s.client.Get(ctx, selectionKeyPrefix+customerID.String()).Result()
	if err == redis.Nil {
		return kernel.CompanyID(""), nil
	}
	if err != nil {
		return kernel.CompanyID(""), err
	}
	return kernel.NewCompanyID(val), nil
}

func (s *RedisSelectionStore) SaveSelection(ctx context.Context, customerID kernel.CustomerID, companyID kernel.CompanyID) error {
	return s.client.Set(ctx, selectionKeyPrefix+customerID.String(), companyID.String(), s.retention).Err()
}
