package prompt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nikhilbhutani/medalchat/internal/cache"
)

// Source resolves the active system prompt for a context key.
type Source interface {
	ActivePrompt(ctx context.Context, contextKey string) (string, bool, error)
}

// Cache is the subset of cache.Cache used for prompt snapshots.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type snapshot struct {
	Text  string `json:"text"`
	Found bool   `json:"found"`
}

// CachedStore serves ActivePrompt from a short-lived cache in front of a
// Source. Cache failures fall through to the source.
type CachedStore struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(source Source, c Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: slog.Default().With("component", "prompt_cache"),
	}
}

func cacheKey(contextKey string) string {
	return "prompt:active:" + contextKey
}

func (c *CachedStore) ActivePrompt(ctx context.Context, contextKey string) (string, bool, error) {
	var snap snapshot
	err := c.cache.Get(ctx, cacheKey(contextKey), &snap)
	if err == nil {
		return snap.Text, snap.Found, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("prompt cache read failed", "context", contextKey, "error", err)
	}

	text, found, err := c.source.ActivePrompt(ctx, contextKey)
	if err != nil {
		return "", false, err
	}
	if err := c.cache.Set(ctx, cacheKey(contextKey), snapshot{Text: text, Found: found}, c.ttl); err != nil {
		c.logger.Warn("prompt cache write failed", "context", contextKey, "error", err)
	}
	return text, found, nil
}

// Invalidate drops the cached prompt for each context key.
func (c *CachedStore) Invalidate(ctx context.Context, contextKeys ...string) {
	if len(contextKeys) == 0 {
		return
	}
	keys := make([]string, len(contextKeys))
	for i, k := range contextKeys {
		keys[i] = cacheKey(k)
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Warn("prompt cache invalidation failed", "contexts", contextKeys, "error", err)
	}
}
