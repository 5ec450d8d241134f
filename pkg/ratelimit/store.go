package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists quota state for the lifetime of a quota window.
type Store interface {
	// Load returns the last saved state, or nil if there is none.
	Load(ctx context.Context) (*QuotaState, error)

	// Save replaces the saved state.
	Save(ctx context.Context, state *QuotaState) error
}

// MemoryStore keeps quota state in process.
type MemoryStore struct {
	mu    sync.RWMutex
	state *QuotaState
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context) (*QuotaState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, state *QuotaState) error {
	if state == nil {
		return fmt.Errorf("quota state cannot be nil")
	}
	s := *state
	m.mu.Lock()
	m.state = &s
	m.mu.Unlock()
	return nil
}

// RedisStore shares quota state between processes exporting the same store.
// Keys expire shortly after the window resets, so nothing outlives it.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a store whose keys are namespaced by storeHash.
func NewRedisStore(redisClient *redis.Client, storeHash string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: "storefront:quota:" + storeHash,
	}
}

func (r *RedisStore) keyLeft() string    { return r.prefix + ":requests_left" }
func (r *RedisStore) keyQuota() string   { return r.prefix + ":requests_quota" }
func (r *RedisStore) keyReset() string   { return r.prefix + ":reset_at_ms" }
func (r *RedisStore) keyWindow() string  { return r.prefix + ":window_ms" }
func (r *RedisStore) keyUpdated() string { return r.prefix + ":last_update" }

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context) (*QuotaState, error) {
	vals, err := r.redis.MGet(ctx, r.keyLeft(), r.keyQuota(), r.keyReset(), r.keyWindow(), r.keyUpdated()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget quota state: %w", err)
	}
	if vals[0] == nil || vals[2] == nil {
		return nil, nil
	}

	ints := make([]int64, 4)
	for i := range ints {
		if vals[i] == nil {
			continue
		}
		s, ok := vals[i].(string)
		if !ok {
			return nil, fmt.Errorf("unexpected redis value type %T", vals[i])
		}
		if _, err := fmt.Sscan(s, &ints[i]); err != nil {
			return nil, fmt.Errorf("parse quota field %d: %w", i, err)
		}
	}

	state := &QuotaState{
		RequestsLeft:  int(ints[0]),
		RequestsQuota: int(ints[1]),
		ResetAt:       time.UnixMilli(ints[2]),
		Window:        time.Duration(ints[3]) * time.Millisecond,
	}

	if s, ok := vals[4].(string); ok && s != "" {
		if err := json.Unmarshal([]byte(s), &state.LastUpdate); err != nil {
			return nil, fmt.Errorf("parse last update: %w", err)
		}
	}

	return state, nil
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, state *QuotaState) error {
	if state == nil {
		return fmt.Errorf("quota state cannot be nil")
	}

	ttl := state.TimeUntilReset() + time.Minute

	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, r.keyLeft(), state.RequestsLeft, ttl)
	pipe.Set(ctx, r.keyQuota(), state.RequestsQuota, ttl)
	pipe.Set(ctx, r.keyReset(), state.ResetAt.UnixMilli(), ttl)
	pipe.Set(ctx, r.keyWindow(), state.Window.Milliseconds(), ttl)
	pipe.Set(ctx, r.keyUpdated(), lastUpdateJSON, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quota state in redis: %w", err)
	}
	return nil
}
