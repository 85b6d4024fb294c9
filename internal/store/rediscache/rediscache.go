// Package rediscache decorates a persistport.Port with a Redis-backed
// write-dedup cache: before shelling out to WriteBlob, it checks whether an
// OID for this exact content was already minted, skipping the underlying
// write (and its round trip to the object database) on a hit. This leans on
// content-addressing's own guarantee — identical bytes always produce the
// same OID — so the cache can never go stale.
package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kenneth/git-cas/internal/cas/persistport"
	"github.com/kenneth/git-cas/internal/metrics"
)

// Cache wraps a persistport.Port with a Redis-backed blob-write dedup layer.
type Cache struct {
	inner   persistport.Port
	rdb     *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

// New builds a Cache over inner using an already-constructed redis.Client.
// ttl is how long a content-hash -> OID mapping is remembered; zero means
// no expiry.
func New(inner persistport.Port, rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{inner: inner, rdb: rdb, ttl: ttl}
}

// WithMetrics attaches m so every WriteBlob call records a dedup hit or
// miss. Optional: a Cache with no metrics attached behaves exactly as
// before.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

func cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return "git-cas:blob:" + hex.EncodeToString(sum[:])
}

// WriteBlob consults the cache before delegating to inner.WriteBlob. A
// Redis failure is not fatal: the call falls through to inner, trading a
// dedup opportunity for availability.
func (c *Cache) WriteBlob(ctx context.Context, data []byte) (string, error) {
	key := cacheKey(data)
	if oid, err := c.rdb.Get(ctx, key).Result(); err == nil && oid != "" {
		if c.metrics != nil {
			c.metrics.RecordDedupHit()
		}
		return oid, nil
	}
	if c.metrics != nil {
		c.metrics.RecordDedupMiss()
	}

	oid, err := c.inner.WriteBlob(ctx, data)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, oid, c.ttl).Err(); err != nil {
		return oid, nil // cache-write failure must not fail the store
	}
	return oid, nil
}

func (c *Cache) WriteTree(ctx context.Context, entries []persistport.TreeEntry) (string, error) {
	return c.inner.WriteTree(ctx, entries)
}

func (c *Cache) ReadBlob(ctx context.Context, oid string) ([]byte, error) {
	return c.inner.ReadBlob(ctx, oid)
}

func (c *Cache) ReadTree(ctx context.Context, oid string) ([]persistport.TreeEntry, error) {
	return c.inner.ReadTree(ctx, oid)
}

var _ persistport.Port = (*Cache)(nil)
