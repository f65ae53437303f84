package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/smp-leadform/internal/form"
)

// ProgressKey is the fixed key the answer set is cached under.
const ProgressKey = "scalpCarolinasFormData"

// ProgressCache saves a visitor's partial answers outside the main flow.
// Load returns nil, nil when nothing is cached.
type ProgressCache interface {
	Save(ctx context.Context, sessionID string, answers form.Answers) error
	Load(ctx context.Context, sessionID string) (*form.Answers, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryProgress is an in-process ProgressCache.
type MemoryProgress struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryProgress creates an empty in-memory progress cache.
func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{data: make(map[string][]byte)}
}

func (m *MemoryProgress) Save(_ context.Context, sessionID string, answers form.Answers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("session: marshal progress: %w", err)
	}
	m.mu.Lock()
	m.data[progressKey(sessionID)] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryProgress) Load(_ context.Context, sessionID string) (*form.Answers, error) {
	m.mu.Lock()
	data, ok := m.data[progressKey(sessionID)]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeProgress(data)
}

func (m *MemoryProgress) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.data, progressKey(sessionID))
	m.mu.Unlock()
	return nil
}

// RedisProgress stores cached answers in Redis with a TTL.
type RedisProgress struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisProgress creates a Redis-backed progress cache.
func NewRedisProgress(client *redis.Client, ttl time.Duration) *RedisProgress {
	if client == nil {
		panic("session: redis client required")
	}
	return &RedisProgress{redis: client, ttl: ttl}
}

func (r *RedisProgress) Save(ctx context.Context, sessionID string, answers form.Answers) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("session: marshal progress: %w", err)
	}
	if err := r.redis.Set(ctx, progressKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: save progress: %w", err)
	}
	return nil
}

func (r *RedisProgress) Load(ctx context.Context, sessionID string) (*form.Answers, error) {
	data, err := r.redis.Get(ctx, progressKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load progress: %w", err)
	}
	return decodeProgress(data)
}

func (r *RedisProgress) Clear(ctx context.Context, sessionID string) error {
	if err := r.redis.Del(ctx, progressKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session: clear progress: %w", err)
	}
	return nil
}

func progressKey(sessionID string) string {
	return ProgressKey + ":" + sessionID
}

func decodeProgress(data []byte) (*form.Answers, error) {
	var answers form.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("session: unmarshal progress: %w", err)
	}
	return &answers, nil
}

var (
	_ ProgressCache = (*MemoryProgress)(nil)
	_ ProgressCache = (*RedisProgress)(nil)
)
