// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package siteconfig

import (
	"context"
	"encoding/json"
	"fmt"

	"promptlib/internal/models"
)

// LocalKey is the key the local backend stores the document under.
const LocalKey = "site_config"

// KV is the key/value contract the local backend needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// LocalBackend keeps the configuration as a single JSON value in a local
// key/value store.
type LocalBackend struct {
	kv KV
}

// NewLocalBackend returns a backend persisting through kv.
func NewLocalBackend(kv KV) *LocalBackend {
	return &LocalBackend{kv: kv}
}

// Mode implements Backend.
func (b *LocalBackend) Mode() models.StorageMode { return models.StorageLocal }

// Load implements Backend. The stored string is returned as-is; decoding
// happens in the Store so corrupted values fall back to defaults there.
func (b *LocalBackend) Load(ctx context.Context) (json.RawMessage, error) {
	v, ok, err := b.kv.Get(ctx, LocalKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", LocalKey, err)
	}
	if !ok || v == "" {
		return nil, nil
	}
	return json.RawMessage(v), nil
}

// Save implements Backend.
func (b *LocalBackend) Save(ctx context.Context, cfg models.SiteConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal site config: %w", err)
	}
	if err := b.kv.Set(ctx, LocalKey, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", LocalKey, err)
	}
	return nil
}
