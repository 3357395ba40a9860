package navcheck

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/KRR-Oxford/docnav/internal/config"
)

// NATSCache manages the NATS connection for target verification: a JetStream
// KV bucket for cached results and a subject for broken target events.
type NATSCache struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	kv       jetstream.KeyValue
	cfg      *config.VerificationConfig
	subject  string
	kvBucket string
}

// NewNATSCache creates a NATS-backed result cache.
func NewNATSCache(cfg *config.VerificationConfig) (*NATSCache, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("target verification is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	cache := &NATSCache{
		conn:     conn,
		js:       js,
		cfg:      cfg,
		subject:  cfg.Subject,
		kvBucket: cfg.KVBucket,
	}

	if err := cache.initKVBucket(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize KV bucket: %w", err)
	}

	slog.Info("NATS cache initialized for target verification",
		"url", cfg.NATSURL,
		"subject", cfg.Subject,
		"kv_bucket", cfg.KVBucket)

	return cache, nil
}

// initKVBucket creates or gets the KV bucket for the target cache.
func (c *NATSCache) initKVBucket() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	kv, err := c.js.KeyValue(ctx, c.kvBucket)
	if err == nil {
		c.kv = kv
		return nil
	}

	kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      c.kvBucket,
		Description: "Target verification cache for docnav",
		MaxBytes:    100 * 1024 * 1024,
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}

	c.kv = kv
	slog.Info("Created KV bucket for target cache", "bucket", c.kvBucket)
	return nil
}

// kvKey derives a KV-safe key from a URL.
func kvKey(url string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
}

// GetCachedResult retrieves a cached verification result.
func (c *NATSCache) GetCachedResult(ctx context.Context, url string) (*CacheEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry, err := c.kv.Get(ctx, kvKey(url))
	if err != nil {
		if err == jetstream.ErrKeyNotFound {
			return nil, nil // Not cached
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var cached CacheEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}

	return &cached, nil
}

// SetCachedResult stores a verification result in cache.
func (c *NATSCache) SetCachedResult(ctx context.Context, entry *CacheEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	entry.LastChecked = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	// NATS KV has no per-key TTL; validity is checked on read via IsCacheValid.
	if _, err := c.kv.Put(ctx, kvKey(entry.URL), data); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}

	return nil
}

// IsCacheValid checks if a cache entry is still valid based on TTL.
func (c *NATSCache) IsCacheValid(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	ttl, _ := time.ParseDuration(c.cfg.CacheTTL)
	return time.Since(entry.LastChecked) < ttl
}

// PublishBrokenTarget publishes a broken target event.
func (c *NATSCache) PublishBrokenTarget(ctx context.Context, event *BrokenTargetEvent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := c.js.Publish(ctx, c.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published broken target event", "url", event.URL, "label", event.Label)
	return nil
}

// Close closes the NATS connection.
func (c *NATSCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
