package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pharmadesk/go-rxcore/internal/domain/alert"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
)

// Redis key per collection, serialized as one JSON document each.
const (
	redisKeyPrescriptions = "rxcore:prescriptions"
	redisKeyAlerts        = "rxcore:prescription_alerts"
)

// RedisStore persists each collection as a single JSON value under a fixed
// key, the key-value realization of the store boundary.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already-connected Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadPrescriptions returns the stored prescription collection.
func (s *RedisStore) LoadPrescriptions(ctx context.Context) ([]*rx.Prescription, error) {
	var out []*rx.Prescription
	if err := s.load(ctx, redisKeyPrescriptions, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*rx.Prescription{}
	}
	return out, nil
}

// SavePrescriptions replaces the stored prescription collection.
func (s *RedisStore) SavePrescriptions(ctx context.Context, prescriptions []*rx.Prescription) error {
	return s.save(ctx, redisKeyPrescriptions, prescriptions)
}

// LoadAlerts returns the stored alert collection.
func (s *RedisStore) LoadAlerts(ctx context.Context) ([]alert.Alert, error) {
	var out []alert.Alert
	if err := s.load(ctx, redisKeyAlerts, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []alert.Alert{}
	}
	return out, nil
}

// SaveAlerts replaces the stored alert collection.
func (s *RedisStore) SaveAlerts(ctx context.Context, alerts []alert.Alert) error {
	return s.save(ctx, redisKeyAlerts, alerts)
}

func (s *RedisStore) load(ctx context.Context, key string, v interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: redis get %s: %v", ErrStorage, key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrStorage, key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %v", ErrStorage, key, err)
	}
	return nil
}
