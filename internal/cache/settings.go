// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// settings.go caches the admin settings document in Valkey. Every client
// session fetches it on start-up, so reads are far more frequent than the
// admin's writes; a write drops the cached copy.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"promptlib/internal/metrics"
)

const (
	// settingsKeyPrefix is the Valkey key prefix for cached settings documents.
	settingsKeyPrefix = "settings:"

	// DefaultSettingsTTL bounds how stale a cached document can be if an
	// invalidation is lost.
	DefaultSettingsTTL = 10 * time.Minute
)

// SettingsCache stores JSON settings documents in Valkey.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSettingsCache creates a settings cache backed by the given Valkey client.
func NewSettingsCache(client *redis.Client, ttl time.Duration) *SettingsCache {
	if ttl == 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsCache{client: client, ttl: ttl}
}

// Get returns the cached document for key. Any error counts as a miss.
func (sc *SettingsCache) Get(ctx context.Context, key string) (map[string]any, bool) {
	raw, err := sc.client.Get(ctx, settingsKeyPrefix+key).Bytes()
	if err == redis.Nil {
		metrics.SettingsCacheMissesTotal.Inc()
		return nil, false
	}
	if err != nil {
		slog.Warn("settings cache get error", "key", key, "error", err)
		metrics.SettingsCacheMissesTotal.Inc()
		return nil, false
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		slog.Warn("settings cache holds an unreadable document", "key", key, "error", err)
		metrics.SettingsCacheMissesTotal.Inc()
		return nil, false
	}

	metrics.SettingsCacheHitsTotal.Inc()
	slog.Debug("settings cache hit", "key", key)
	return doc, true
}

// Set stores doc under key with the configured TTL.
func (sc *SettingsCache) Set(ctx context.Context, key string, doc map[string]any) {
	raw, err := json.Marshal(doc)
	if err != nil {
		slog.Warn("settings cache encode error", "key", key, "error", err)
		return
	}
	if err := sc.client.Set(ctx, settingsKeyPrefix+key, raw, sc.ttl).Err(); err != nil {
		slog.Warn("settings cache set error", "key", key, "error", err)
	}
}

// Invalidate removes the cached document for key.
func (sc *SettingsCache) Invalidate(ctx context.Context, key string) {
	if err := sc.client.Del(ctx, settingsKeyPrefix+key).Err(); err != nil {
		slog.Warn("settings cache invalidate error", "key", key, "error", err)
		return
	}
	slog.Debug("settings cache invalidated", "key", key)
}
