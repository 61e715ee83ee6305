package database

import (
	"context"
	"encoding/json"
	"testing"

	"promptlib/internal/models"
)

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, testDSN(), DefaultOptions())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only inserts when the settings row is missing, so calling it
	// twice must be harmless even with other packages sharing the DB.
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var raw string
	if err := db.QueryRow(
		"SELECT value FROM site_settings WHERE key = $1", models.AdminSettingsKey,
	).Scan(&raw); err != nil {
		t.Fatalf("read seeded settings: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("seeded settings are not a JSON object: %v", err)
	}
	if _, ok := doc["homeTitle"]; !ok {
		t.Errorf("seeded document missing homeTitle: %v", doc)
	}
}
