package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/magix-backend/internal/platform/logger"
)

const defaultKeyPrefix = "magix:llm:active:"

// LLMStatusCache holds LLM active flags for a short TTL so the message path does not hit
// the registry table on every turn.
type LLMStatusCache interface {
	Get(ctx context.Context, name string) (active bool, found bool, err error)
	Set(ctx context.Context, name string, active bool) error
	Invalidate(ctx context.Context, name string) error
	Client() *goredis.Client
	Close() error
}

type Config struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

type llmStatusCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

func NewLLMStatusCache(log *logger.Logger, cfg Config) (LLMStatusCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &llmStatusCache{
		log:    log.With("service", "RedisLLMStatusCache"),
		rdb:    rdb,
		ttl:    cfg.TTL,
		prefix: cfg.KeyPrefix,
	}, nil
}

func (c *llmStatusCache) key(name string) string {
	return statusKey(c.prefix, name)
}

// statusKey uses the exact registry name; lookups are case-sensitive.
func statusKey(prefix, name string) string {
	return prefix + name
}

func (c *llmStatusCache) Get(ctx context.Context, name string) (bool, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(name)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get: %w", err)
	}
	return v == "1", true, nil
}

func (c *llmStatusCache) Set(ctx context.Context, name string, active bool) error {
	v := "0"
	if active {
		v = "1"
	}
	if err := c.rdb.Set(ctx, c.key(name), v, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *llmStatusCache) Invalidate(ctx context.Context, name string) error {
	if err := c.rdb.Del(ctx, c.key(name)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (c *llmStatusCache) Client() *goredis.Client { return c.rdb }

func (c *llmStatusCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
