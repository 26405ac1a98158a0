package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velomart/cart-service/internal/models"
)

// RedisStore persists carts as JSON blobs with a TTL, so guest carts survive
// process restarts and idle sessions expire on their own. Mutations are
// serialized through a per-session in-process lock; running multiple writer
// instances against the same redis database is not supported.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *RedisStore) sessionLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}

	return l
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (*models.Cart, error) {
	data, err := s.client.Get(ctx, Key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.EmptyCart(), nil
		}

		return nil, fmt.Errorf("failed to get cart for session %s: %w", sessionID, err)
	}

	cart := &models.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart for session %s: %w", sessionID, err)
	}

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return cart, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.Cart, error) {
	return s.load(ctx, sessionID)
}

func (s *RedisStore) Mutate(ctx context.Context, sessionID string, fn func(cart *models.Cart) error) (*models.Cart, error) {
	l := s.sessionLock(sessionID)
	l.Lock()
	defer l.Unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart for session %s: %w", sessionID, err)
	}

	if err := s.client.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store cart for session %s: %w", sessionID, err)
	}

	return cart, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart for session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	delete(s.locks, sessionID)
	s.mu.Unlock()

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
