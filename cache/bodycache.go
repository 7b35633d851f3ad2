// Package cache keeps extracted article bodies in Redis so repeated runs
// within the TTL do not refetch the same pages.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"newsdigest/logger"
	"newsdigest/types"
)

const (
	keyPrefix = "newsdigest:body:"
	opTimeout = 2 * time.Second
)

// Config configures the Redis connection
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// BodyCache is a Redis-backed store of extracted bodies keyed by normalized URL.
// Redis errors are logged and treated as misses.
type BodyCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

type entry struct {
	Body   string           `json:"body"`
	Status types.BodyStatus `json:"status"`
}

// New connects to Redis and verifies connectivity
func New(ctx context.Context, cfg Config, log logger.Logger) (*BodyCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return NewWithClient(client, cfg.TTL, log), nil
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client, ttl time.Duration, log logger.Logger) *BodyCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &BodyCache{client: client, ttl: ttl, log: log}
}

// Close closes the underlying Redis client
func (c *BodyCache) Close() error {
	return c.client.Close()
}

// Get returns the cached body for link, if present
func (c *BodyCache) Get(ctx context.Context, link string) (string, types.BodyStatus, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, Key(link)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", "", false
	}
	if err != nil {
		c.log.Warn("Body cache read failed", logger.String("url", link), logger.Error(err))
		return "", "", false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Body == "" {
		c.log.Warn("Body cache entry unreadable", logger.String("url", link))
		return "", "", false
	}
	return e.Body, e.Status, true
}

// Set stores a body. Only successful extractions are kept.
func (c *BodyCache) Set(ctx context.Context, link, body string, status types.BodyStatus) {
	if status != types.BodyOK && status != types.BodyTruncated {
		return
	}

	raw, err := json.Marshal(entry{Body: body, Status: status})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, Key(link), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Body cache write failed", logger.String("url", link), logger.Error(err))
	}
}

// Key returns the Redis key for link
func Key(link string) string {
	h := sha256.Sum256([]byte(NormalizeURL(link)))
	return keyPrefix + hex.EncodeToString(h[:])
}
