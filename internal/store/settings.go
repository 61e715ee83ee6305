// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides the database access layer for site settings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"promptlib/internal/models"
	"promptlib/internal/siteconfig"
)

// SettingsStore manages the site_settings table. Plain settings are
// string values; JSON documents (like the admin site configuration) are
// stored as JSON text under a single key.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore returns a new SettingsStore backed by the given database.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// All returns every setting as a convenience map.
func (s *SettingsStore) All(ctx context.Context) (models.SiteSettings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(models.SiteSettings)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// Get returns a single setting by key, or the fallback if not found.
func (s *SettingsStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// Set upserts a single setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, upsertSetting, key, value, time.Now())
	return err
}

// SetMany updates multiple settings in a single transaction.
func (s *SettingsStore) SetMany(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSetting)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const upsertSetting = `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Document returns the JSON object stored under key. A missing or empty
// row yields an empty map.
func (s *SettingsStore) Document(ctx context.Context, key string) (map[string]any, error) {
	raw, err := s.Get(ctx, key, "")
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", key, err)
	}
	return decodeDocument(key, raw)
}

// MergeDocument deep-merges patch onto the document stored under key and
// writes the result back. The row is locked for the duration so two
// concurrent merges serialize; the later one wins on conflicting fields.
func (s *SettingsStore) MergeDocument(ctx context.Context, key string, patch map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge %q: %w", key, err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT value FROM site_settings WHERE key = $1 FOR UPDATE`, key,
	).Scan(&raw)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("lock document %q: %w", key, err)
	}

	current, err := decodeDocument(key, raw)
	if err != nil {
		return err
	}

	merged, err := json.Marshal(siteconfig.MergeJSON(current, patch))
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, upsertSetting, key, string(merged), time.Now()); err != nil {
		return fmt.Errorf("write document %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit document %q: %w", key, err)
	}
	return nil
}

func decodeDocument(key, raw string) (map[string]any, error) {
	doc := map[string]any{}
	if raw == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode document %q: %w", key, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
