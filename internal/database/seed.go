package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"promptlib/internal/models"
)

// Seed stores the built-in site configuration as the admin settings
// document if none exists yet. It never overwrites an existing row.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM site_settings WHERE key = $1", models.AdminSettingsKey,
	).Scan(&count); err != nil {
		return fmt.Errorf("seed check settings: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	doc, err := json.Marshal(models.DefaultSiteConfig())
	if err != nil {
		return fmt.Errorf("seed marshal defaults: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, models.AdminSettingsKey, string(doc), time.Now())
	if err != nil {
		return fmt.Errorf("seed insert settings: %w", err)
	}

	slog.Info("database seeded with default site configuration", "key", models.AdminSettingsKey)
	return nil
}
