package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"hermannm.dev/wrap"
)

const redisKeyPrefix = "portfolio:session:"

// RedisStore keeps sessions as JSON values in Redis, relying on key expiry for the TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis, and fails if the server does not answer a ping.
func NewRedisStore(ctx context.Context, options *redis.Options, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, wrap.Errorf(err, "failed to connect to Redis at '%s'", options.Addr)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func (store *RedisStore) Get(ctx context.Context, id uuid.UUID) (State, bool, error) {
	value, err := store.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, wrap.Error(err, "failed to get session from Redis")
	}

	var state State
	if err := json.Unmarshal(value, &state); err != nil {
		return State{}, false, wrap.Error(err, "failed to decode session stored in Redis")
	}
	return state, true, nil
}

func (store *RedisStore) Save(ctx context.Context, id uuid.UUID, state State) error {
	value, err := json.Marshal(state)
	if err != nil {
		return wrap.Error(err, "failed to encode session")
	}

	if err := store.client.Set(ctx, redisKey(id), value, store.ttl).Err(); err != nil {
		return wrap.Error(err, "failed to save session to Redis")
	}
	return nil
}

func (store *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := store.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return wrap.Error(err, "failed to delete session from Redis")
	}
	return nil
}

func (store *RedisStore) Close() error {
	return store.client.Close()
}
