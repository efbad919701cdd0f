// Package cache is an optional Redis/Valkey cache of formatted retrieval
// contexts. It is strictly best-effort: any failure is a cache miss and the
// retrieval pipeline recomputes the context.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ContextCache implements retrieval.ContextCache on top of rueidis.
type ContextCache struct {
	client rueidis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// Config holds the cache connection settings.
type Config struct {
	Addrs     []string
	Password  string
	TTL       time.Duration
	KeyPrefix string
	Logger    *zap.Logger
}

// New creates a context cache.
func New(cfg *Config) (*ContextCache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ContextCache{
		client: client,
		ttl:    ttl,
		prefix: cfg.KeyPrefix,
		logger: cfg.Logger,
	}, nil
}

// Get returns a cached context for the query, if present.
func (c *ContextCache) Get(ctx context.Context, query string, limit int) (string, bool) {
	cmd := c.client.B().Get().Key(c.key(query, limit)).Build()
	text, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("context cache get failed", zap.Error(err))
		}
		return "", false
	}
	return text, true
}

// Set stores a context with the configured TTL.
func (c *ContextCache) Set(ctx context.Context, query string, limit int, text string) {
	cmd := c.client.B().Set().Key(c.key(query, limit)).Value(text).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		c.logger.Warn("context cache set failed", zap.Error(err))
	}
}

// Close shuts down the client.
func (c *ContextCache) Close() {
	c.client.Close()
}

// key hashes query and limit so arbitrary user text never reaches the
// keyspace directly.
func (c *ContextCache) key(query string, limit int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d", query, limit))
	return c.prefix + hex.EncodeToString(sum[:])
}
