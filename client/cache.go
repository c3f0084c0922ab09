package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

// Cache backend names, used as metric labels.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// AnswerStore keeps agent answers by key.
type AnswerStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, answer string, ttl time.Duration) error
	Backend() string
}

// MemoryStore is an in-process AnswerStore.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a store whose entries expire after ttl. Expired
// entries are purged every 2*ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, 2*ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return "", false, nil
	}
	answer, ok := v.(string)
	return answer, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, answer string, ttl time.Duration) error {
	s.c.Set(key, answer, ttl)
	return nil
}

func (s *MemoryStore) Backend() string { return BackendMemory }

// RedisStore shares answers between meetprep processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. Keys are stored under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	answer, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return answer, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, answer, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Backend() string { return BackendRedis }

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewAnswerStore picks Redis when cfg.RedisAddr is set and the server
// answers a ping, else an in-process store.
func NewAnswerStore(ctx context.Context, cfg config.CacheConfig) (AnswerStore, error) {
	if cfg.RedisAddr == "" {
		return NewMemoryStore(cfg.TTL), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return NewRedisStore(rdb, cfg.KeyPrefix), nil
}

// CacheKey is the hex SHA-256 of the question.
func CacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return hex.EncodeToString(sum[:])
}

// CachedAgent answers repeated questions from an AnswerStore. Refusals and
// errors are never stored, so a later call asks the agent again.
type CachedAgent struct {
	next      Asker
	store     AnswerStore
	ttl       time.Duration
	isRefusal func(string) bool
	metrics   *observability.Metrics
	logger    logging.Logger
}

// NewCachedAgent wraps next. isRefusal decides which answers must not be
// cached; nil caches every answer.
func NewCachedAgent(next Asker, store AnswerStore, ttl time.Duration, isRefusal func(string) bool, metrics *observability.Metrics, logger logging.Logger) *CachedAgent {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if isRefusal == nil {
		isRefusal = func(string) bool { return false }
	}
	return &CachedAgent{
		next:      next,
		store:     store,
		ttl:       ttl,
		isRefusal: isRefusal,
		metrics:   metrics,
		logger:    logger,
	}
}

// Ask returns a cached answer when one exists and otherwise asks the
// wrapped agent. Store failures are logged and bypassed.
func (c *CachedAgent) Ask(ctx context.Context, question string, timeout time.Duration) (string, error) {
	log := c.logger.WithContext(ctx)
	key := CacheKey(question)

	answer, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn("Answer cache lookup failed", logging.F("backend", c.store.Backend()), logging.Err(err))
	}
	c.metrics.RecordCacheLookup(c.store.Backend(), ok)
	if ok {
		log.Debug("Answer cache hit", logging.F("key", key[:12]))
		return answer, nil
	}

	answer, err = c.next.Ask(ctx, question, timeout)
	if err != nil {
		return "", err
	}
	if c.isRefusal(answer) {
		return answer, nil
	}
	if err := c.store.Set(ctx, key, answer, c.ttl); err != nil {
		log.Warn("Answer cache store failed", logging.F("backend", c.store.Backend()), logging.Err(err))
	}
	return answer, nil
}
