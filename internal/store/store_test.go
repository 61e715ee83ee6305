// store_test.go provides a shared test database helper for store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"promptlib/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "promptlib")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "promptlib")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if _, err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanSettings removes test settings rows by key. Call in t.Cleanup().
func cleanSettings(t *testing.T, db *sql.DB, keys ...string) {
	t.Helper()
	for _, key := range keys {
		db.Exec("DELETE FROM site_settings WHERE key = $1", key)
	}
}

func TestSettingsStoreIntegration(t *testing.T) {
	db := testDB(t)
	s := NewSettingsStore(db)
	ctx := context.Background()

	const key = "test_admin_settings"
	t.Cleanup(func() { cleanSettings(t, db, key) })

	doc, err := s.Document(ctx, key)
	if err != nil {
		t.Fatalf("Document on empty key: %v", err)
	}
	if len(doc) != 0 {
		t.Fatalf("expected empty document, got %v", doc)
	}

	if err := s.MergeDocument(ctx, key, map[string]any{
		"homeTitle":  "first",
		"inviteCode": map[string]any{"enabled": true, "code": "abc"},
	}); err != nil {
		t.Fatalf("first MergeDocument: %v", err)
	}
	if err := s.MergeDocument(ctx, key, map[string]any{
		"inviteCode": map[string]any{"code": "xyz"},
	}); err != nil {
		t.Fatalf("second MergeDocument: %v", err)
	}

	doc, err = s.Document(ctx, key)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if doc["homeTitle"] != "first" {
		t.Errorf("homeTitle = %v, want first", doc["homeTitle"])
	}
	invite, _ := doc["inviteCode"].(map[string]any)
	if invite["enabled"] != true || invite["code"] != "xyz" {
		t.Errorf("inviteCode = %v, want enabled=true code=xyz", invite)
	}
}
