// Package redisstore keeps the snapshot under one Redis key. Writes take a
// distributed lock so replicas sharing the key never interleave.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hostelmart/hostelmart-backend/internal/storage"
	"github.com/hostelmart/hostelmart-backend/pkg/redis"
)

const snapshotName = "shop"

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
	SnapshotKey(name string) string
	LockKey(name string) string
	Ping(ctx context.Context) error
	Close() error
}

// Store persists the snapshot without expiry.
type Store struct {
	client  kv
	lockTTL time.Duration
}

var _ storage.Backend = (*Store)(nil)

// New wraps a redis client. lockTTL bounds how long a crashed writer blocks others.
func New(client kv, lockTTL time.Duration) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Store{client: client, lockTTL: lockTTL}, nil
}

// Load returns the stored payload or ErrNoSnapshot.
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	value, err := s.client.Get(ctx, s.client.SnapshotKey(snapshotName))
	if errors.Is(err, redis.ErrMiss) || (err == nil && value == "") {
		return nil, storage.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return []byte(value), nil
}

// Save writes the payload under the snapshot lock.
func (s *Store) Save(ctx context.Context, payload []byte) error {
	return s.client.WithLock(ctx, s.client.LockKey(snapshotName), s.lockTTL, func(ctx context.Context) error {
		if err := s.client.Set(ctx, s.client.SnapshotKey(snapshotName), payload, 0); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		return nil
	})
}

// Ping checks the redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
